package http_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/Almacen-api/internal/interfaces/http"
	"github.com/jhoicas/Almacen-api/pkg/metrics"
)

func TestAccessLogYMetrics_UsanLaRutaRegistrada(t *testing.T) {
	var buf bytes.Buffer
	m := metrics.New("almacen_test")

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(apphttp.AccessLog(zerolog.New(&buf)))
	app.Use(apphttp.Metrics(m))
	app.Get("/api/inventory/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/inventory/"+id, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/inventory/:id", "404")),
		"las dos peticiones comparten la etiqueta de la ruta, no el path concreto")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))

	out := buf.String()
	assert.Contains(t, out, `"route":"/api/inventory/:id"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"request_id":"`)
	assert.Contains(t, out, `"level":"warn"`)
}
