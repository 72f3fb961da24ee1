package inventory

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Items     repository.ItemRepository
	Locations repository.LocationRepository
	Stock     repository.StockRepository
	Movements repository.StockMovementRepository
	Outbox    repository.OutboxRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback de todo; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}

// MovementRecorder registra métricas del libro. Puede ser nil.
type MovementRecorder interface {
	RecordMovement(kind, result string)
}
