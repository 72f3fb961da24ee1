package entity

import "time"

// Tipos de ubicación sugeridos; el campo es libre.
const (
	LocationTypeShelf = "shelf"
	LocationTypeBin   = "bin"
	LocationTypeFloor = "floor"
	LocationTypeDock  = "dock"
)

// StorageLocation es una ubicación dentro de una bodega (estante, bin, zona de piso...).
// Code es único dentro de su bodega.
type StorageLocation struct {
	ID          string
	WarehouseID string
	Name        string
	Code        string
	Type        string
	Capacity    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
