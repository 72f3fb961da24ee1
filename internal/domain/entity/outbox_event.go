package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Tipos de evento publicados por el libro.
const (
	EventMovementApplied = "stock.movement.applied"
	AggregateItem        = "item"
)

// OutboxEvent es un evento pendiente de publicar, escrito en la misma transacción que el cambio que lo origina.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Topic         string
	Payload       json.RawMessage
	CreatedAt     time.Time
	PublishedAt   *time.Time
	RetryCount    int
	LastError     string
}

// NewOutboxEvent serializa payload y construye el evento.
func NewOutboxEvent(aggregateID, aggregateType, eventType, topic string, payload any) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Topic:         topic,
		Payload:       data,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// IsPublished indica si el evento ya fue entregado.
func (e *OutboxEvent) IsPublished() bool {
	return e.PublishedAt != nil
}

// ShouldRetry indica si el relay debe intentar publicarlo otra vez.
func (e *OutboxEvent) ShouldRetry(maxRetries int) bool {
	return !e.IsPublished() && e.RetryCount < maxRetries
}

// MovementAppliedPayload cuerpo del evento stock.movement.applied.
type MovementAppliedPayload struct {
	MovementID     string            `json:"movement_id"`
	ItemID         string            `json:"item_id"`
	Kind           string            `json:"kind"`
	Quantity       string            `json:"quantity"`
	FromLocationID *string           `json:"from_location_id,omitempty"`
	ToLocationID   *string           `json:"to_location_id,omitempty"`
	UserID         string            `json:"user_id"`
	ItemQuantity   string            `json:"item_quantity"`
	Balances       map[string]string `json:"balances"`
	OccurredAt     time.Time         `json:"occurred_at"`
}
