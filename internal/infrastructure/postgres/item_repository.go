package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id, name, sku, barcode, description, quantity, min_quantity, warehouse_id, location_id, created_at, updated_at`

// ItemRepo artículos sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador de artículos. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

func scanItem(row pgx.Row) (*entity.Item, error) {
	var it entity.Item
	err := row.Scan(&it.ID, &it.Name, &it.SKU, &it.Barcode, &it.Description, &it.Quantity, &it.MinQuantity,
		&it.WarehouseID, &it.LocationID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *ItemRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Item, error) {
	it, err := scanItem(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func (r *ItemRepo) Create(ctx context.Context, it *entity.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query, it.ID, it.Name, it.SKU, it.Barcode, it.Description, it.Quantity, it.MinQuantity,
		it.WarehouseID, it.LocationID, it.CreatedAt, it.UpdatedAt)
	if err != nil {
		return mapWriteError("insert item", err)
	}
	return nil
}

func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
}

func (r *ItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.Item, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id)
}

// GetByCode busca por barcode o SKU; si ambos coinciden con artículos distintos gana el barcode.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	query := `
		SELECT ` + itemColumns + ` FROM items
		WHERE barcode = $1 OR sku = $1
		ORDER BY (barcode = $1) DESC NULLS LAST
		LIMIT 1`
	return r.getOne(ctx, query, code)
}

// Update no toca quantity: solo el libro la modifica.
func (r *ItemRepo) Update(ctx context.Context, it *entity.Item) error {
	query := `
		UPDATE items SET name = $2, sku = $3, barcode = $4, description = $5, min_quantity = $6,
			warehouse_id = $7, location_id = $8, updated_at = $9
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, it.ID, it.Name, it.SKU, it.Barcode, it.Description, it.MinQuantity,
		it.WarehouseID, it.LocationID, it.UpdatedAt)
	if err != nil {
		return mapWriteError("update item", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: artículo %s", domain.ErrNotFound, it.ID)
	}
	return nil
}

func itemWhere(f repository.ItemFilter) *where {
	w := &where{}
	if q := strings.TrimSpace(f.Search); q != "" {
		w.add(`(name ILIKE ? OR sku ILIKE ? OR barcode ILIKE ?)`, likePattern(q))
	}
	if f.WarehouseID != "" {
		w.addID(`warehouse_id = ?`, f.WarehouseID)
	}
	if f.LowStock {
		w.conds = append(w.conds, `min_quantity > 0 AND quantity <= min_quantity`)
	}
	return w
}

func (r *ItemRepo) List(ctx context.Context, f repository.ItemFilter, limit, offset int) ([]*entity.Item, error) {
	w := itemWhere(f)
	pageSQL, args := w.page(limit, offset)
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM items`+w.sql()+` ORDER BY name, id`+pageSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func (r *ItemRepo) Count(ctx context.Context, f repository.ItemFilter) (int, error) {
	w := itemWhere(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM items`+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM items WHERE id = $1`, id); err != nil {
		return mapWriteError("delete item", err)
	}
	return nil
}

// AdjustQuantity suma delta al total sin permitir que quede negativo.
func (r *ItemRepo) AdjustQuantity(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE items SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING quantity`
	var qty decimal.Decimal
	err := r.q.QueryRow(ctx, query, id, delta).Scan(&qty)
	if err == nil {
		return qty, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, mapWriteError("adjust item quantity", err)
	}
	existing, gerr := r.GetByID(ctx, id)
	if gerr != nil {
		return decimal.Zero, gerr
	}
	if existing == nil {
		return decimal.Zero, fmt.Errorf("%w: artículo %s", domain.ErrNotFound, id)
	}
	return decimal.Zero, fmt.Errorf("%w: total del artículo %s", domain.ErrInsufficientStock, id)
}

func (r *ItemRepo) SetQuantity(ctx context.Context, id string, quantity decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `UPDATE items SET quantity = $2, updated_at = now() WHERE id = $1`, id, quantity)
	if err != nil {
		return mapWriteError("set item quantity", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: artículo %s", domain.ErrNotFound, id)
	}
	return nil
}
