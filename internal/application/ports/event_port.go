package ports

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// EventPublisher entrega un evento del outbox al bus (Kafka, log, etc.).
type EventPublisher interface {
	Publish(ctx context.Context, event *entity.OutboxEvent) error
}
