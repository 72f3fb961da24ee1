package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	m := New("almacen")

	m.RecordMovement("outbound", "insufficient_stock")
	m.RecordMovement("outbound", "insufficient_stock")
	m.RecordMovement("inbound", "applied")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StockMovements.WithLabelValues("outbound", "insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StockMovements.WithLabelValues("inbound", "applied")))

	m.SetStockDiscrepancies(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StockDiscrepancies))

	m.RecordHTTPRequest("GET", "/api/inventory/:id", 200, 15*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/inventory/:id", "200")))

	m.SetCircuitBreakerState("kafka", 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("kafka")))

	m.RecordOutboxEvent("published")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxPublished.WithLabelValues("published")))
}
