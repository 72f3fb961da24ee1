package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Almacen-api/internal/application/inventory"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

const maxTxAttempts = 3

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, log zerolog.Logger) *TxRunner {
	return &TxRunner{pool: pool, log: log}
}

// Run ejecuta fn con repos atados a una tx. Ante 40001/40P01 repite la transacción completa.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) || ctx.Err() != nil {
			return err
		}
		r.log.Warn().Err(err).Int("attempt", attempt).Msg("transacción abortada por concurrencia, reintentando")
	}
	return err
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(inventory.TxRepos{
		Items:     NewItemRepository(tx),
		Locations: NewLocationRepository(tx),
		Stock:     NewStockRepository(tx),
		Movements: NewStockMovementRepository(tx),
		Outbox:    NewOutboxRepository(tx),
	}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
