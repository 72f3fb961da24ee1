package events

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/jhoicas/Almacen-api/internal/application/ports"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// ErrCircuitOpen el publicador está abierto y rechaza envíos sin intentar.
var ErrCircuitOpen = errors.New("circuit breaker abierto")

// BreakerStateObserver recibe el estado del breaker (0 cerrado, 1 medio abierto, 2 abierto).
type BreakerStateObserver interface {
	SetCircuitBreakerState(name string, state int)
}

// BreakerConfig umbrales del breaker.
type BreakerConfig struct {
	Name                string
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig valores para el publicador de eventos.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "event-publisher",
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// BreakerPublisher protege un publicador con gobreaker: tras varios fallos seguidos deja de
// llamar al broker y los eventos quedan en el outbox para el siguiente ciclo.
type BreakerPublisher struct {
	next ports.EventPublisher
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerPublisher envuelve next. observer puede ser nil.
func NewBreakerPublisher(next ports.EventPublisher, cfg BreakerConfig, observer BreakerStateObserver, log zerolog.Logger) *BreakerPublisher {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("cambio de estado del circuit breaker")
			if observer != nil {
				observer.SetCircuitBreakerState(name, int(to))
			}
		},
	}
	if observer != nil {
		observer.SetCircuitBreakerState(cfg.Name, int(gobreaker.StateClosed))
	}
	return &BreakerPublisher{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (p *BreakerPublisher) Publish(ctx context.Context, e *entity.OutboxEvent) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.next.Publish(ctx, e)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State estado actual del breaker.
func (p *BreakerPublisher) State() gobreaker.State {
	return p.cb.State()
}
