package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBalance es el saldo de un artículo en una ubicación.
type StockBalance struct {
	ItemID     string
	LocationID string
	Quantity   decimal.Decimal
	UpdatedAt  time.Time
}

// StockDiscrepancy describe un artículo cuyo total no coincide con la suma de sus saldos.
type StockDiscrepancy struct {
	ItemID        string
	SKU           string
	ItemQuantity  decimal.Decimal
	BalancesTotal decimal.Decimal
}

// Difference devuelve total del artículo menos suma de saldos.
func (d StockDiscrepancy) Difference() decimal.Decimal {
	return d.ItemQuantity.Sub(d.BalancesTotal)
}
