package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Almacen-api/internal/application/ports"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// Estados reportados a la métrica del outbox.
const (
	StatusPublished = "published"
	StatusFailed    = "failed"
)

// OutboxObserver recibe un conteo por evento procesado. Puede ser nil.
type OutboxObserver interface {
	RecordOutboxEvent(status string)
}

// RelayConfig parámetros del relevo.
type RelayConfig struct {
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// Relay toma eventos pendientes del outbox, los publica y los marca.
// Un fallo de publicación suma un reintento; el evento se reintenta en el siguiente ciclo
// hasta agotar MaxRetries. Tras un fallo, los eventos posteriores del mismo agregado esperan
// al siguiente ciclo para no adelantarse. Con el breaker abierto el lote se corta sin
// consumir reintentos.
type Relay struct {
	repo      repository.OutboxRepository
	publisher ports.EventPublisher
	observer  OutboxObserver
	cfg       RelayConfig
	log       zerolog.Logger
}

// NewRelay construye el relevo.
func NewRelay(repo repository.OutboxRepository, publisher ports.EventPublisher, observer OutboxObserver, cfg RelayConfig, log zerolog.Logger) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	return &Relay{repo: repo, publisher: publisher, observer: observer, cfg: cfg, log: log}
}

// RelayStats resultado de un ciclo.
type RelayStats struct {
	Published int
	Failed    int
	Deferred  int // pospuestos: breaker abierto o evento previo del mismo agregado sin publicar
}

// RunOnce procesa un lote de eventos pendientes.
func (r *Relay) RunOnce(ctx context.Context) (RelayStats, error) {
	var stats RelayStats
	pending, err := r.repo.FindUnpublished(ctx, r.cfg.MaxRetries, r.cfg.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("buscar eventos pendientes: %w", err)
	}
	blocked := make(map[string]bool)
	for i, e := range pending {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if blocked[e.AggregateID] {
			stats.Deferred++
			continue
		}
		err := r.publisher.Publish(ctx, e)
		if errors.Is(err, ErrCircuitOpen) {
			stats.Deferred += len(pending) - i
			r.log.Warn().Int("pending", len(pending)-i).Msg("circuit breaker abierto: el lote queda para el siguiente ciclo")
			break
		}
		if err != nil {
			stats.Failed++
			blocked[e.AggregateID] = true
			r.observe(StatusFailed)
			r.log.Warn().Err(err).Str("event_id", e.ID).Int("retry", e.RetryCount+1).Msg("no se pudo publicar el evento")
			if err := r.repo.IncrementRetry(ctx, e.ID, err.Error()); err != nil {
				r.log.Error().Err(err).Str("event_id", e.ID).Msg("incrementar reintentos")
			}
			continue
		}
		if err := r.repo.MarkPublished(ctx, e.ID, time.Now().UTC()); err != nil {
			// Se publicará de nuevo en el próximo ciclo: la entrega es al menos una vez.
			blocked[e.AggregateID] = true
			r.log.Error().Err(err).Str("event_id", e.ID).Msg("marcar evento publicado")
			continue
		}
		stats.Published++
		r.observe(StatusPublished)
	}
	if len(pending) > 0 {
		r.log.Debug().Int("published", stats.Published).Int("failed", stats.Failed).Int("deferred", stats.Deferred).
			Msg("ciclo de outbox")
	}
	return stats, nil
}

// Cleanup borra eventos publicados hace más de Retention.
func (r *Relay) Cleanup(ctx context.Context) (int64, error) {
	if r.cfg.Retention <= 0 {
		return 0, nil
	}
	n, err := r.repo.DeletePublishedBefore(ctx, time.Now().UTC().Add(-r.cfg.Retention))
	if err != nil {
		return 0, fmt.Errorf("limpiar outbox: %w", err)
	}
	if n > 0 {
		r.log.Info().Int64("deleted", n).Msg("eventos publicados eliminados del outbox")
	}
	return n, nil
}

func (r *Relay) observe(status string) {
	if r.observer != nil {
		r.observer.RecordOutboxEvent(status)
	}
}
