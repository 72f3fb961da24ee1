package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ──────────────────────────────────────────────────────────────────────────────

type fakeWriter struct {
	mu    sync.Mutex
	msgs  []kafka.Message
	err   error
	calls int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakePublisher struct {
	calls     int
	fail      map[string]bool // falla siempre
	failOnce  map[string]bool // falla solo la primera vez
	published []string
}

func (p *fakePublisher) Publish(_ context.Context, e *entity.OutboxEvent) error {
	p.calls++
	if p.fail[e.ID] {
		return errors.New("broker caído")
	}
	if p.failOnce[e.ID] {
		delete(p.failOnce, e.ID)
		return errors.New("timeout")
	}
	p.published = append(p.published, e.ID)
	return nil
}

type statusCounter struct{ counts map[string]int }

func (c *statusCounter) RecordOutboxEvent(status string) { c.counts[status]++ }

type breakerStates struct{ last map[string]int }

func (b *breakerStates) SetCircuitBreakerState(name string, state int) { b.last[name] = state }

func newEvent(t *testing.T, aggregateID string) *entity.OutboxEvent {
	t.Helper()
	e, err := entity.NewOutboxEvent(aggregateID, entity.AggregateItem, entity.EventMovementApplied, "almacen.stock-movements",
		map[string]string{"item_id": aggregateID})
	require.NoError(t, err)
	return e
}

// ──────────────────────────────────────────────────────────────────────────────
// KafkaPublisher
// ──────────────────────────────────────────────────────────────────────────────

func TestKafkaPublisher_MensajeConClaveYCabeceras(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(w, "por-defecto")
	e := newEvent(t, "item-1")

	require.NoError(t, p.Publish(context.Background(), e))
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "almacen.stock-movements", msg.Topic)
	assert.Equal(t, []byte("item-1"), msg.Key)
	assert.JSONEq(t, `{"item_id":"item-1"}`, string(msg.Value))

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, e.ID, headers["event-id"])
	assert.Equal(t, entity.EventMovementApplied, headers["event-type"])
}

func TestKafkaPublisher_TopicoPorDefecto(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(w, "por-defecto")
	e := newEvent(t, "item-1")
	e.Topic = ""

	require.NoError(t, p.Publish(context.Background(), e))
	assert.Equal(t, "por-defecto", w.msgs[0].Topic)
}

// ──────────────────────────────────────────────────────────────────────────────
// BreakerPublisher
// ──────────────────────────────────────────────────────────────────────────────

func TestBreakerPublisher_AbreTrasFallosConsecutivos(t *testing.T) {
	w := &fakeWriter{err: errors.New("sin líder")}
	states := &breakerStates{last: map[string]int{}}
	cfg := DefaultBreakerConfig()
	cfg.ConsecutiveFailures = 3
	cfg.Timeout = time.Hour
	p := NewBreakerPublisher(NewKafkaPublisherWithWriter(w, "t"), cfg, states, zerolog.Nop())
	assert.Equal(t, int(gobreaker.StateClosed), states.last[cfg.Name])

	for i := 0; i < 3; i++ {
		err := p.Publish(context.Background(), newEvent(t, "item-1"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())
	assert.Equal(t, int(gobreaker.StateOpen), states.last[cfg.Name])

	err := p.Publish(context.Background(), newEvent(t, "item-1"))
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

// ──────────────────────────────────────────────────────────────────────────────
// Relay
// ──────────────────────────────────────────────────────────────────────────────

func TestRelay_PublicaYMarcaLosPendientes(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories(memory.NewStore())
	ok1, ok2, bad := newEvent(t, "a"), newEvent(t, "b"), newEvent(t, "c")
	for _, e := range []*entity.OutboxEvent{ok1, ok2, bad} {
		require.NoError(t, repos.Outbox.Save(ctx, e))
	}
	pub := &fakePublisher{fail: map[string]bool{bad.ID: true}}
	counter := &statusCounter{counts: map[string]int{}}
	relay := NewRelay(repos.Outbox, pub, counter, RelayConfig{MaxRetries: 2}, zerolog.Nop())

	stats, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, RelayStats{Published: 2, Failed: 1}, stats)
	assert.Equal(t, 2, counter.counts[StatusPublished])
	assert.Equal(t, 1, counter.counts[StatusFailed])

	pending, err := repos.Outbox.FindUnpublished(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, bad.ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].RetryCount)

	// Segundo fallo: agota los reintentos y deja de ofrecerse.
	_, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	pending, err = repos.Outbox.FindUnpublished(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, 4, pub.calls)
}

func TestRelay_BreakerAbiertoNoConsumeReintentos(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories(memory.NewStore())
	for i := 0; i < 20; i++ {
		require.NoError(t, repos.Outbox.Save(ctx, newEvent(t, fmt.Sprintf("item-%d", i))))
	}
	w := &fakeWriter{err: errors.New("broker caído")}
	cfg := DefaultBreakerConfig()
	cfg.Timeout = time.Hour
	pub := NewBreakerPublisher(NewKafkaPublisherWithWriter(w, "t"), cfg, nil, zerolog.Nop())
	relay := NewRelay(repos.Outbox, pub, nil, RelayConfig{MaxRetries: 3, BatchSize: 100}, zerolog.Nop())

	stats, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, RelayStats{Failed: 5, Deferred: 15}, stats)

	for i := 0; i < 2; i++ {
		stats, err = relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, RelayStats{Deferred: 20}, stats)
	}

	assert.Equal(t, 5, w.calls, "con el breaker abierto no se llama al broker")
	pending, err := repos.Outbox.FindUnpublished(ctx, 3, 100)
	require.NoError(t, err)
	assert.Len(t, pending, 20, "ningún evento se descarta mientras el breaker está abierto")
	for _, e := range pending {
		assert.LessOrEqual(t, e.RetryCount, 1)
	}
}

func TestRelay_MantieneOrdenPorAgregado(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories(memory.NewStore())
	e1, e2, other := newEvent(t, "item-1"), newEvent(t, "item-1"), newEvent(t, "item-2")
	for _, e := range []*entity.OutboxEvent{e1, e2, other} {
		require.NoError(t, repos.Outbox.Save(ctx, e))
	}
	pub := &fakePublisher{failOnce: map[string]bool{e1.ID: true}}
	relay := NewRelay(repos.Outbox, pub, nil, RelayConfig{MaxRetries: 3}, zerolog.Nop())

	stats, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, RelayStats{Published: 1, Failed: 1, Deferred: 1}, stats)
	assert.Equal(t, []string{other.ID}, pub.published, "e2 espera a que e1 salga")

	stats, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, RelayStats{Published: 2}, stats)
	assert.Equal(t, []string{other.ID, e1.ID, e2.ID}, pub.published)
}

func TestRelay_CleanupBorraPublicadosAntiguos(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories(memory.NewStore())
	old, recent := newEvent(t, "a"), newEvent(t, "b")
	require.NoError(t, repos.Outbox.Save(ctx, old))
	require.NoError(t, repos.Outbox.Save(ctx, recent))
	require.NoError(t, repos.Outbox.MarkPublished(ctx, old.ID, time.Now().UTC().Add(-5*time.Hour)))
	require.NoError(t, repos.Outbox.MarkPublished(ctx, recent.ID, time.Now().UTC()))

	relay := NewRelay(repos.Outbox, &fakePublisher{}, nil, RelayConfig{Retention: time.Hour}, zerolog.Nop())
	n, err := relay.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLogPublisher_NoFalla(t *testing.T) {
	assert.NoError(t, NewLogPublisher(zerolog.Nop()).Publish(context.Background(), newEvent(t, "x")))
}
