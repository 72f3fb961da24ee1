package entity

import "time"

// Warehouse representa una bodega física. Capacity es informativa (no se valida contra los saldos).
type Warehouse struct {
	ID          string
	Name        string
	Location    string // dirección o referencia física
	Capacity    int
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
