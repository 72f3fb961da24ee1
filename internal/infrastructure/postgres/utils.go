package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Almacen-api/internal/domain"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == "23505"
}

// isForeignKeyViolation 23503: la fila aún es referenciada (o la referencia no existe).
func isForeignKeyViolation(err error) bool {
	return pgCode(err) == "23503"
}

// isCheckViolation 23514: p. ej. cantidad negativa.
func isCheckViolation(err error) bool {
	return pgCode(err) == "23514"
}

// isInvalidText 22P02: el valor no convierte al tipo de la columna (p. ej. un id que no es UUID).
func isInvalidText(err error) bool {
	return pgCode(err) == "22P02"
}

// validID las claves son UUID: un texto que no lo es no puede corresponder a ninguna fila.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// isRetryable fallos de serialización (40001) y deadlocks (40P01): se reintenta la transacción completa.
func isRetryable(err error) bool {
	switch pgCode(err) {
	case "40001", "40P01":
		return true
	}
	return false
}

// mapWriteError traduce errores de escritura a errores de dominio.
func mapWriteError(op string, err error) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, op)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: %s: referencia en uso o inexistente", domain.ErrConflict, op)
	case isCheckViolation(err):
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, op)
	case pgCode(err) == "22003":
		return fmt.Errorf("%w: %s: cantidad fuera de rango", domain.ErrInvalidInput, op)
	case isInvalidText(err):
		return fmt.Errorf("%w: %s: identificador inexistente", domain.ErrNotFound, op)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// likePattern escapa comodines de LIKE y envuelve el término en %...%.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// where acumula condiciones y argumentos posicionales.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// addID como add, para columnas UUID: un id mal formado no coincide con ninguna fila.
func (w *where) addID(cond, id string) {
	if !validID(id) {
		w.conds = append(w.conds, "FALSE")
		return
	}
	w.add(cond, id)
}

// page añade LIMIT/OFFSET como siguientes parámetros.
func (w *where) page(limit, offset int) (string, []any) {
	args := append(append([]any(nil), w.args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}
