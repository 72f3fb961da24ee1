package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// StockRepository define el puerto de persistencia para los saldos por ubicación.
type StockRepository interface {
	// Get devuelve el saldo; si no existe fila devuelve saldo cero.
	Get(ctx context.Context, itemID, locationID string) (*entity.StockBalance, error)
	// LockForUpdate asegura que existan las filas y las bloquea en el orden recibido (SELECT FOR UPDATE).
	LockForUpdate(ctx context.Context, itemID string, locationIDs []string) (map[string]*entity.StockBalance, error)
	// Apply suma delta al saldo sin permitir que quede negativo (ErrInsufficientStock).
	Apply(ctx context.Context, itemID, locationID string, delta decimal.Decimal) (*entity.StockBalance, error)
	ListByItem(ctx context.Context, itemID string) ([]*entity.StockBalance, error)
	ListByLocation(ctx context.Context, locationID string) ([]*entity.StockBalance, error)
	// HasStock indica si la ubicación tiene algún saldo distinto de cero.
	HasStock(ctx context.Context, locationID string) (bool, error)
	// Discrepancies lista artículos cuyo total difiere de la suma de sus saldos.
	Discrepancies(ctx context.Context) ([]entity.StockDiscrepancy, error)
}
