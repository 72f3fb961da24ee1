package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

func scanBalance(row pgx.Row) (*entity.StockBalance, error) {
	var b entity.StockBalance
	if err := row.Scan(&b.ItemID, &b.LocationID, &b.Quantity, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// Get obtiene el saldo de un artículo en una ubicación (cero si no hay fila).
func (r *StockRepo) Get(ctx context.Context, itemID, locationID string) (*entity.StockBalance, error) {
	if !validID(itemID) || !validID(locationID) {
		return &entity.StockBalance{ItemID: itemID, LocationID: locationID, Quantity: decimal.Zero}, nil
	}
	query := `
		SELECT item_id, location_id, quantity, updated_at
		FROM stock_balances WHERE item_id = $1 AND location_id = $2`
	b, err := scanBalance(r.q.QueryRow(ctx, query, itemID, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockBalance{ItemID: itemID, LocationID: locationID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return b, nil
}

// LockForUpdate crea las filas que falten y las bloquea (SELECT FOR UPDATE) en el orden recibido.
func (r *StockRepo) LockForUpdate(ctx context.Context, itemID string, locationIDs []string) (map[string]*entity.StockBalance, error) {
	out := make(map[string]*entity.StockBalance, len(locationIDs))
	for _, locID := range locationIDs {
		_, err := r.q.Exec(ctx, `
			INSERT INTO stock_balances (item_id, location_id, quantity, updated_at)
			VALUES ($1, $2, 0, now())
			ON CONFLICT (item_id, location_id) DO NOTHING`, itemID, locID)
		if err != nil {
			return nil, mapWriteError("ensure stock row", err)
		}
		b, err := scanBalance(r.q.QueryRow(ctx, `
			SELECT item_id, location_id, quantity, updated_at
			FROM stock_balances WHERE item_id = $1 AND location_id = $2
			FOR UPDATE`, itemID, locID))
		if err != nil {
			return nil, fmt.Errorf("lock stock: %w", err)
		}
		out[locID] = b
	}
	return out, nil
}

// Apply suma delta al saldo con un update condicional: nunca deja el saldo negativo.
func (r *StockRepo) Apply(ctx context.Context, itemID, locationID string, delta decimal.Decimal) (*entity.StockBalance, error) {
	var row pgx.Row
	if delta.IsNegative() {
		row = r.q.QueryRow(ctx, `
			UPDATE stock_balances SET quantity = quantity + $3, updated_at = now()
			WHERE item_id = $1 AND location_id = $2 AND quantity + $3 >= 0
			RETURNING item_id, location_id, quantity, updated_at`, itemID, locationID, delta)
	} else {
		row = r.q.QueryRow(ctx, `
			INSERT INTO stock_balances (item_id, location_id, quantity, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (item_id, location_id)
			DO UPDATE SET quantity = stock_balances.quantity + EXCLUDED.quantity, updated_at = now()
			RETURNING item_id, location_id, quantity, updated_at`, itemID, locationID, delta)
	}
	b, err := scanBalance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: saldo en %s", domain.ErrInsufficientStock, locationID)
		}
		return nil, mapWriteError("apply stock", err)
	}
	return b, nil
}

func (r *StockRepo) list(ctx context.Context, query string, arg string) ([]*entity.StockBalance, error) {
	if !validID(arg) {
		return []*entity.StockBalance{}, nil
	}
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockBalance, 0)
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func (r *StockRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.StockBalance, error) {
	return r.list(ctx, `
		SELECT item_id, location_id, quantity, updated_at
		FROM stock_balances WHERE item_id = $1 ORDER BY location_id::text`, itemID)
}

func (r *StockRepo) ListByLocation(ctx context.Context, locationID string) ([]*entity.StockBalance, error) {
	return r.list(ctx, `
		SELECT item_id, location_id, quantity, updated_at
		FROM stock_balances WHERE location_id = $1 ORDER BY item_id::text`, locationID)
}

func (r *StockRepo) HasStock(ctx context.Context, locationID string) (bool, error) {
	if !validID(locationID) {
		return false, nil
	}
	var ok bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stock_balances WHERE location_id = $1 AND quantity > 0)`, locationID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("has stock: %w", err)
	}
	return ok, nil
}

// Discrepancies artículos cuyo total difiere de la suma de sus saldos.
func (r *StockRepo) Discrepancies(ctx context.Context) ([]entity.StockDiscrepancy, error) {
	query := `
		SELECT i.id, i.sku, i.quantity, COALESCE(SUM(b.quantity), 0) AS balances_total
		FROM items i
		LEFT JOIN stock_balances b ON b.item_id = i.id
		GROUP BY i.id, i.sku, i.quantity
		HAVING i.quantity <> COALESCE(SUM(b.quantity), 0)
		ORDER BY i.sku`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("stock discrepancies: %w", err)
	}
	defer rows.Close()
	var out []entity.StockDiscrepancy
	for rows.Next() {
		var d entity.StockDiscrepancy
		if err := rows.Scan(&d.ItemID, &d.SKU, &d.ItemQuantity, &d.BalancesTotal); err != nil {
			return nil, fmt.Errorf("scan discrepancy: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
