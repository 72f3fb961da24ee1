package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics métricas Prometheus de la API, con registro propio.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	StockMovements     *prometheus.CounterVec
	StockDiscrepancies prometheus.Gauge

	OutboxPublished     *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec
}

// New registra todas las métricas bajo el namespace indicado (p. ej. "almacen").
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP atendidas",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las peticiones HTTP en segundos",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "Peticiones HTTP en curso",
	})
	m.StockMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_total",
			Help:      "Movimientos de inventario por tipo y resultado",
		},
		[]string{"kind", "result"},
	)
	m.StockDiscrepancies = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stock_discrepancies",
		Help:      "Artículos cuyo total no coincide con la suma de sus saldos en la última conciliación",
	})
	m.OutboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_published_total",
			Help:      "Eventos del outbox procesados por resultado",
		},
		[]string{"status"},
	)
	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Estado del circuit breaker (0=cerrado, 1=semiabierto, 2=abierto)",
		},
		[]string{"name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.StockMovements,
		m.StockDiscrepancies,
		m.OutboxPublished,
		m.CircuitBreakerState,
	)
	return m
}

// Registry expone el registro (tests y colectores adicionales).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler handler HTTP del endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest registra una petición terminada.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordMovement cuenta un intento de movimiento (result: applied, insufficient_stock, ...).
func (m *Metrics) RecordMovement(kind, result string) {
	m.StockMovements.WithLabelValues(kind, result).Inc()
}

// SetStockDiscrepancies fija el número de artículos desalineados.
func (m *Metrics) SetStockDiscrepancies(n int) {
	m.StockDiscrepancies.Set(float64(n))
}

// RecordOutboxEvent cuenta un evento relevado (status: published, failed, skipped).
func (m *Metrics) RecordOutboxEvent(status string) {
	m.OutboxPublished.WithLabelValues(status).Inc()
}

// SetCircuitBreakerState fija el estado numérico de un breaker.
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}
