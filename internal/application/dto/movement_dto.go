package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateMovementRequest body para POST /api/stock-movements.
// inbound: to_location_id; outbound: from_location_id; move: ambos y distintos.
type CreateMovementRequest struct {
	ItemID         string          `json:"item_id" validate:"required"`
	MovementType   string          `json:"movement_type" validate:"required"`
	Quantity       decimal.Decimal `json:"quantity"`
	FromLocationID *string         `json:"from_location_id"`
	ToLocationID   *string         `json:"to_location_id"`
	Notes          string          `json:"notes" validate:"max=1000"`
}

// MovementResponse salida de un movimiento del libro.
type MovementResponse struct {
	ID             string          `json:"id"`
	ItemID         string          `json:"item_id"`
	MovementType   string          `json:"movement_type"`
	Quantity       decimal.Decimal `json:"quantity"`
	FromLocationID *string         `json:"from_location_id,omitempty"`
	ToLocationID   *string         `json:"to_location_id,omitempty"`
	UserID         string          `json:"user_id"`
	Notes          string          `json:"notes,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// ApplyMovementResponse movimiento registrado junto con los saldos resultantes.
type ApplyMovementResponse struct {
	Movement     MovementResponse  `json:"movement"`
	Balances     []BalanceResponse `json:"balances"`
	ItemQuantity decimal.Decimal   `json:"item_quantity"`
	Replayed     bool              `json:"replayed"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ReconcileResponse resultado de la conciliación total vs. saldos.
type ReconcileResponse struct {
	Checked       time.Time             `json:"checked_at"`
	Fixed         bool                  `json:"fixed"`
	Discrepancies []DiscrepancyResponse `json:"discrepancies"`
}

// DiscrepancyResponse un artículo con total desalineado.
type DiscrepancyResponse struct {
	ItemID        string          `json:"item_id"`
	SKU           string          `json:"sku"`
	ItemQuantity  decimal.Decimal `json:"item_quantity"`
	BalancesTotal decimal.Decimal `json:"balances_total"`
}
