package main

import (
	"context"
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests /ready
// ──────────────────────────────────────────────────────────────────────────────

func okPing(context.Context) error { return nil }

func failPing(context.Context) error {
	return errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
}

func TestReadiness_TodoDisponible(t *testing.T) {
	code, body := readiness(context.Background(), "postgres", []depCheck{
		{name: "postgres", critical: true, ping: okPing},
		{name: "redis", ping: okPing},
	}, zerolog.Nop())

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]string{"storage": "postgres", "postgres": "ok", "redis": "ok"}, body["deps"])
}

func TestReadiness_RedisCaidoNoDegrada(t *testing.T) {
	code, body := readiness(context.Background(), "postgres", []depCheck{
		{name: "postgres", critical: true, ping: okPing},
		{name: "redis", ping: failPing},
	}, zerolog.Nop())

	assert.Equal(t, fiber.StatusOK, code, "Redis es solo caché")
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "error", body["deps"].(map[string]string)["redis"])
}

func TestReadiness_PostgresCaidoNoExponeDetalle(t *testing.T) {
	code, body := readiness(context.Background(), "postgres", []depCheck{
		{name: "postgres", critical: true, ping: failPing},
	}, zerolog.Nop())

	assert.Equal(t, fiber.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body["status"])
	deps := body["deps"].(map[string]string)
	assert.Equal(t, "error", deps["postgres"])
	for _, v := range deps {
		assert.NotContains(t, v, "10.0.0.5", "la respuesta no revela direcciones internas")
	}
}

func TestReadiness_SinDependenciasExternas(t *testing.T) {
	code, body := readiness(context.Background(), "memory", nil, zerolog.Nop())

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, map[string]string{"storage": "memory"}, body["deps"])
}
