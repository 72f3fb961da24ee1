package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de inventario.
const (
	MovementInbound  = "inbound"  // entrada a una ubicación destino
	MovementOutbound = "outbound" // salida desde una ubicación origen
	MovementMove     = "move"     // traslado origen -> destino
)

// StockMovement es un registro inmutable del libro de movimientos.
// Quantity siempre es positiva; el sentido lo dan Kind y las ubicaciones.
type StockMovement struct {
	ID             string
	ItemID         string
	Kind           string
	Quantity       decimal.Decimal
	FromLocationID *string
	ToLocationID   *string
	UserID         string
	Notes          string
	IdempotencyKey *string
	CreatedAt      time.Time
}

// TouchesLocation indica si el movimiento afecta la ubicación dada.
func (m *StockMovement) TouchesLocation(locationID string) bool {
	return (m.FromLocationID != nil && *m.FromLocationID == locationID) ||
		(m.ToLocationID != nil && *m.ToLocationID == locationID)
}
