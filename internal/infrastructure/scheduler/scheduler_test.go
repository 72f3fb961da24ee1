package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_ScheduleInvalido(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.Register("roto", "no es cron", func(context.Context) error { return nil })
	assert.Error(t, err)
	assert.Empty(t, s.Jobs())
}

func TestRegister_Duplicado(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.Register("outbox", "@every 5s", func(context.Context) error { return nil }))
	assert.Error(t, s.Register("outbox", "@every 5s", func(context.Context) error { return nil }))
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())
	calls := 0
	require.NoError(t, s.Register("conciliar", "", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline, "cada ejecución lleva timeout")
		calls++
		return nil
	}))
	boom := errors.New("boom")
	require.NoError(t, s.Register("falla", "@hourly", func(context.Context) error { return boom }))

	require.NoError(t, s.RunNow(context.Background(), "conciliar"))
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, s.RunNow(context.Background(), "falla"), boom)
	assert.Error(t, s.RunNow(context.Background(), "no-existe"))

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "conciliar", jobs[0].Name)
	assert.Equal(t, "@hourly", jobs[1].Schedule)
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.Register("x", "@every 1h", func(context.Context) error { return nil }))
	s.Start()
	s.Stop(context.Background())
}
