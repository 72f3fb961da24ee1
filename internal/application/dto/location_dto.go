package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateLocationRequest entrada para crear una ubicación dentro de una bodega (warehouse_id va en la ruta).
type CreateLocationRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Code     string `json:"code" validate:"required,min=1,max=50"`
	Type     string `json:"type" validate:"omitempty,max=50"`
	Capacity int    `json:"capacity" validate:"min=0"`
}

// UpdateLocationRequest entrada para actualizar una ubicación (parcial).
type UpdateLocationRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
	Code     *string `json:"code" validate:"omitempty,min=1,max=50"`
	Type     *string `json:"type" validate:"omitempty,max=50"`
	Capacity *int    `json:"capacity" validate:"omitempty,min=0"`
}

// LocationResponse salida de una ubicación.
type LocationResponse struct {
	ID          string    `json:"id"`
	WarehouseID string    `json:"warehouse_id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Type        string    `json:"type"`
	Capacity    int       `json:"capacity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LocationListResponse lista paginada de ubicaciones.
type LocationListResponse struct {
	Items []LocationResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// BalanceResponse saldo de un artículo en una ubicación.
type BalanceResponse struct {
	ItemID     string          `json:"item_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ItemBalancesResponse saldos de un artículo y su total.
type ItemBalancesResponse struct {
	ItemID   string            `json:"item_id"`
	Quantity decimal.Decimal   `json:"quantity"`
	Balances []BalanceResponse `json:"balances"`
}

// LocationStockResponse saldos de todos los artículos en una ubicación.
type LocationStockResponse struct {
	LocationID string            `json:"location_id"`
	Balances   []BalanceResponse `json:"balances"`
}
