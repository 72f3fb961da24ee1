package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// MovementFilter filtros del libro de movimientos. Campos vacíos no filtran.
type MovementFilter struct {
	ItemID     string
	LocationID string // origen o destino
	Kind       string
	UserID     string
	From       *time.Time
	To         *time.Time
}

// StockMovementRepository define el puerto de persistencia del libro (solo inserción).
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.StockMovement, error)
	List(ctx context.Context, filter MovementFilter, limit, offset int) ([]*entity.StockMovement, error)
	Count(ctx context.Context, filter MovementFilter) (int, error)
	ExistsForItem(ctx context.Context, itemID string) (bool, error)
	ExistsForLocation(ctx context.Context, locationID string) (bool, error)
}
