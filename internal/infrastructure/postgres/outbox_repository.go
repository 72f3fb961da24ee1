package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo eventos pendientes de publicar; se escriben en la misma tx que el movimiento.
type OutboxRepo struct {
	q Querier
}

// NewOutboxRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

func (r *OutboxRepo) Save(ctx context.Context, e *entity.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, aggregate_id, aggregate_type, event_type, topic, payload, created_at, retry_count, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query, e.ID, e.AggregateID, e.AggregateType, e.EventType, e.Topic, []byte(e.Payload),
		e.CreatedAt, e.RetryCount, e.LastError)
	if err != nil {
		return mapWriteError("insert outbox event", err)
	}
	return nil
}

// FindUnpublished toma un lote en orden de creación, excluyendo los que agotaron reintentos.
func (r *OutboxRepo) FindUnpublished(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error) {
	query := `
		SELECT id, aggregate_id, aggregate_type, event_type, topic, payload, created_at, published_at, retry_count, last_error
		FROM outbox_events
		WHERE published_at IS NULL AND retry_count < $1
		ORDER BY created_at
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("find unpublished events: %w", err)
	}
	defer rows.Close()
	var out []*entity.OutboxEvent
	for rows.Next() {
		var e entity.OutboxEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.Topic, &payload,
			&e.CreatedAt, &e.PublishedAt, &e.RetryCount, &e.LastError); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		e.Payload = payload
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, id string, at time.Time) error {
	if _, err := r.q.Exec(ctx, `UPDATE outbox_events SET published_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}
	return nil
}

func (r *OutboxRepo) IncrementRetry(ctx context.Context, id string, lastError string) error {
	query := `UPDATE outbox_events SET retry_count = retry_count + 1, last_error = $2 WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, id, lastError); err != nil {
		return fmt.Errorf("increment event retry: %w", err)
	}
	return nil
}

func (r *OutboxRepo) DeletePublishedBefore(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM outbox_events WHERE published_at IS NOT NULL AND published_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete published events: %w", err)
	}
	return cmd.RowsAffected(), nil
}
