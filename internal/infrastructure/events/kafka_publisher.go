package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/Almacen-api/internal/application/ports"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/pkg/config"
)

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// MessageWriter subconjunto de *kafka.Writer usado por el publicador.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica eventos del outbox en Kafka. La clave del mensaje es el ID del agregado
// para conservar el orden por artículo dentro de una partición.
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
}

// NewKafkaPublisher crea el writer a partir de la configuración.
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		AllowAutoTopicCreation: true,
	}
	return NewKafkaPublisherWithWriter(w, cfg.Topic)
}

// NewKafkaPublisherWithWriter usa un writer ya construido (tests).
// topic se usa cuando el evento no trae uno propio.
func NewKafkaPublisherWithWriter(w MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e *entity.OutboxEvent) error {
	msg := p.message(e)
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka %s: %w", msg.Topic, err)
	}
	return nil
}

func (p *KafkaPublisher) message(e *entity.OutboxEvent) kafka.Message {
	topic := e.Topic
	if topic == "" {
		topic = p.topic
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(e.AggregateID),
		Value: e.Payload,
		Time:  e.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(e.ID)},
			{Key: "event-type", Value: []byte(e.EventType)},
			{Key: "aggregate-type", Value: []byte(e.AggregateType)},
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
}

// Close vacía y cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
