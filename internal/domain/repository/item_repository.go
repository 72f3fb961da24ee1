package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// ItemFilter filtros de listado de artículos. Campos vacíos no filtran.
type ItemFilter struct {
	Search      string // coincide con name, sku o barcode
	WarehouseID string
	LowStock    bool
}

// ItemRepository define el puerto de persistencia para Item.
// Update nunca modifica Quantity: el total solo cambia con AdjustQuantity/SetQuantity dentro del libro.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	// GetForUpdate lee el artículo y bloquea su fila hasta el fin de la transacción.
	// Orden de bloqueo del libro: primero el artículo, después sus saldos.
	GetForUpdate(ctx context.Context, id string) (*entity.Item, error)
	GetByCode(ctx context.Context, code string) (*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	List(ctx context.Context, filter ItemFilter, limit, offset int) ([]*entity.Item, error)
	Count(ctx context.Context, filter ItemFilter) (int, error)
	Delete(ctx context.Context, id string) error
	// AdjustQuantity suma delta al total y devuelve el nuevo valor.
	AdjustQuantity(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error)
	// SetQuantity fija el total (solo reconciliación).
	SetQuantity(ctx context.Context, id string, quantity decimal.Decimal) error
}
