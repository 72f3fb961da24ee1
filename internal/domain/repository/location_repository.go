package repository

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// LocationRepository define el puerto de persistencia para StorageLocation.
type LocationRepository interface {
	Create(ctx context.Context, location *entity.StorageLocation) error
	GetByID(ctx context.Context, id string) (*entity.StorageLocation, error)
	Update(ctx context.Context, location *entity.StorageLocation) error
	ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*entity.StorageLocation, error)
	CountByWarehouse(ctx context.Context, warehouseID string) (int, error)
	Delete(ctx context.Context, id string) error
}
