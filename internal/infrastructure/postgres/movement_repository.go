package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, item_id, kind, quantity, from_location_id, to_location_id, user_id, notes, idempotency_key, created_at`

// StockMovementRepo libro de movimientos (solo inserción) sobre PostgreSQL.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	err := row.Scan(&m.ID, &m.ItemID, &m.Kind, &m.Quantity, &m.FromLocationID, &m.ToLocationID,
		&m.UserID, &m.Notes, &m.IdempotencyKey, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create registra un movimiento. Una clave de idempotencia repetida devuelve ErrDuplicate.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query, m.ID, m.ItemID, m.Kind, m.Quantity, m.FromLocationID, m.ToLocationID,
		m.UserID, m.Notes, m.IdempotencyKey, m.CreatedAt)
	if err != nil {
		return mapWriteError("insert stock movement", err)
	}
	return nil
}

func (r *StockMovementRepo) getOne(ctx context.Context, query string, arg string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id)
}

func (r *StockMovementRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.StockMovement, error) {
	return r.getOne(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE idempotency_key = $1`, key)
}

func movementWhere(f repository.MovementFilter) *where {
	w := &where{}
	if f.ItemID != "" {
		w.addID(`item_id = ?`, f.ItemID)
	}
	if f.LocationID != "" {
		w.addID(`(from_location_id = ? OR to_location_id = ?)`, f.LocationID)
	}
	if f.Kind != "" {
		w.add(`kind = ?`, f.Kind)
	}
	if f.UserID != "" {
		w.addID(`user_id = ?`, f.UserID)
	}
	if f.From != nil {
		w.add(`created_at >= ?`, *f.From)
	}
	if f.To != nil {
		w.add(`created_at <= ?`, *f.To)
	}
	return w
}

// List devuelve del más reciente al más antiguo.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, error) {
	w := movementWhere(f)
	pageSQL, args := w.page(limit, offset)
	query := `SELECT ` + movementColumns + ` FROM stock_movements` + w.sql() + ` ORDER BY created_at DESC, id DESC` + pageSQL
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockMovement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *StockMovementRepo) Count(ctx context.Context, f repository.MovementFilter) (int, error) {
	w := movementWhere(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements`+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stock movements: %w", err)
	}
	return n, nil
}

func (r *StockMovementRepo) exists(ctx context.Context, cond string, arg string) (bool, error) {
	if !validID(arg) {
		return false, nil
	}
	var ok bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stock_movements WHERE `+cond+`)`, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("stock movement exists: %w", err)
	}
	return ok, nil
}

func (r *StockMovementRepo) ExistsForItem(ctx context.Context, itemID string) (bool, error) {
	return r.exists(ctx, `item_id = $1`, itemID)
}

func (r *StockMovementRepo) ExistsForLocation(ctx context.Context, locationID string) (bool, error) {
	return r.exists(ctx, `from_location_id = $1 OR to_location_id = $1`, locationID)
}
