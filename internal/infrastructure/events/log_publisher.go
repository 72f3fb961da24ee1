package events

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// LogPublisher escribe los eventos en el log. Se usa cuando no hay brokers configurados.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, e *entity.OutboxEvent) error {
	p.log.Info().
		Str("event_id", e.ID).
		Str("event_type", e.EventType).
		Str("topic", e.Topic).
		Str("aggregate_id", e.AggregateID).
		RawJSON("payload", e.Payload).
		Msg("evento publicado")
	return nil
}
