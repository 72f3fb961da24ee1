package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// OutboxRepository persiste eventos pendientes de publicación.
type OutboxRepository interface {
	Save(ctx context.Context, event *entity.OutboxEvent) error
	// FindUnpublished devuelve eventos sin publicar con menos de maxRetries intentos, en orden de creación.
	FindUnpublished(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
	IncrementRetry(ctx context.Context, id string, lastError string) error
	DeletePublishedBefore(ctx context.Context, before time.Time) (int64, error)
}
