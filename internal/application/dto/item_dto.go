package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest entrada para crear un artículo.
// Quantity > 0 exige location_id y se registra como movimiento inbound.
type CreateItemRequest struct {
	Name        string           `json:"name" validate:"required,min=1,max=200"`
	SKU         string           `json:"sku" validate:"required,min=1,max=100"`
	Barcode     *string          `json:"barcode" validate:"omitempty,min=1,max=100"`
	Description string           `json:"description" validate:"max=2000"`
	Quantity    *decimal.Decimal `json:"quantity"`
	MinQuantity *decimal.Decimal `json:"min_quantity"`
	WarehouseID string           `json:"warehouse_id" validate:"required"`
	LocationID  *string          `json:"location_id"`
}

// UpdateItemRequest entrada para actualizar un artículo (parcial).
// Quantity solo se acepta si coincide con el total actual.
type UpdateItemRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	SKU         *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Barcode     *string          `json:"barcode" validate:"omitempty,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Quantity    *decimal.Decimal `json:"quantity"`
	MinQuantity *decimal.Decimal `json:"min_quantity"`
	WarehouseID *string          `json:"warehouse_id" validate:"omitempty,min=1"`
	LocationID  *string          `json:"location_id"`
}

// ItemResponse salida de un artículo.
type ItemResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Barcode     *string         `json:"barcode,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	LowStock    bool            `json:"low_stock"`
	WarehouseID string          `json:"warehouse_id"`
	LocationID  *string         `json:"location_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ItemListResponse lista paginada de artículos.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
