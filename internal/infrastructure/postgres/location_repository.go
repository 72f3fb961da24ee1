package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

const locationColumns = `id, warehouse_id, name, code, type, capacity, created_at, updated_at`

// LocationRepo ubicaciones de almacenamiento sobre PostgreSQL.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

func scanLocation(row pgx.Row) (*entity.StorageLocation, error) {
	var l entity.StorageLocation
	if err := row.Scan(&l.ID, &l.WarehouseID, &l.Name, &l.Code, &l.Type, &l.Capacity, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LocationRepo) Create(ctx context.Context, l *entity.StorageLocation) error {
	query := `
		INSERT INTO storage_locations (` + locationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, l.ID, l.WarehouseID, l.Name, l.Code, l.Type, l.Capacity, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return mapWriteError("insert location", err)
	}
	return nil
}

func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.StorageLocation, error) {
	if !validID(id) {
		return nil, nil
	}
	l, err := scanLocation(r.q.QueryRow(ctx, `SELECT `+locationColumns+` FROM storage_locations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

func (r *LocationRepo) Update(ctx context.Context, l *entity.StorageLocation) error {
	query := `
		UPDATE storage_locations SET name = $2, code = $3, type = $4, capacity = $5, updated_at = $6
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, l.ID, l.Name, l.Code, l.Type, l.Capacity, l.UpdatedAt)
	if err != nil {
		return mapWriteError("update location", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, l.ID)
	}
	return nil
}

func (r *LocationRepo) ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*entity.StorageLocation, error) {
	if !validID(warehouseID) {
		return []*entity.StorageLocation{}, nil
	}
	query := `
		SELECT ` + locationColumns + ` FROM storage_locations
		WHERE warehouse_id = $1 ORDER BY code LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, warehouseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StorageLocation, 0)
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func (r *LocationRepo) CountByWarehouse(ctx context.Context, warehouseID string) (int, error) {
	if !validID(warehouseID) {
		return 0, nil
	}
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM storage_locations WHERE warehouse_id = $1`, warehouseID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count locations: %w", err)
	}
	return n, nil
}

// Delete elimina la ubicación; sus saldos en cero caen en cascada.
func (r *LocationRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM storage_locations WHERE id = $1`, id); err != nil {
		return mapWriteError("delete location", err)
	}
	return nil
}
