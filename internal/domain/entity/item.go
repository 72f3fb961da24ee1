package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un artículo del inventario.
// Quantity es el total desnormalizado: siempre igual a la suma de sus StockBalance.
type Item struct {
	ID          string
	Name        string
	SKU         string
	Barcode     *string
	Description string
	Quantity    decimal.Decimal
	MinQuantity decimal.Decimal
	WarehouseID string
	LocationID  *string // ubicación habitual (opcional)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsLowStock indica si el total está en o por debajo del mínimo configurado.
func (i *Item) IsLowStock() bool {
	return i.MinQuantity.IsPositive() && i.Quantity.LessThanOrEqual(i.MinQuantity)
}
