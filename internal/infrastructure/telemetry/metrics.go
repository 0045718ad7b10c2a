package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metric names
const (
	MetricHTTPRequestsTotal       = "pluvyt_http_requests_total"
	MetricHTTPRequestDuration     = "pluvyt_http_request_duration_seconds"
	MetricPointTransactionsTotal  = "pluvyt_point_transactions_total"
	MetricComandaTransitionsTotal = "pluvyt_comanda_transitions_total"
	MetricOrdersCreatedTotal      = "pluvyt_orders_created_total"
	MetricTablesClosedTotal       = "pluvyt_tables_closed_total"
	MetricTableCloseComandas      = "pluvyt_table_close_comandas"
)

// Metrics owns a private Prometheus registry with the HTTP and business
// collectors. It satisfies the loyalty and ordering recorders.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	pointTransactions  *prometheus.CounterVec
	comandaTransitions *prometheus.CounterVec
	ordersCreated      *prometheus.CounterVec
	tablesClosed       prometheus.Counter
	tableCloseComandas prometheus.Histogram
}

// NewMetrics registers every collector on a fresh registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDuration,
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		pointTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricPointTransactionsTotal,
			Help: "Point ledger movements by kind and outcome",
		}, []string{"kind", "outcome"}),
		comandaTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricComandaTransitionsTotal,
			Help: "Comanda status transitions by target status",
		}, []string{"status"}),
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricOrdersCreatedTotal,
			Help: "Order items created by source",
		}, []string{"source"}),
		tablesClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricTablesClosedTotal,
			Help: "Tables closed",
		}),
		tableCloseComandas: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricTableCloseComandas,
			Help:    "Comandas settled per table close",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.pointTransactions,
		m.comandaTransitions,
		m.ordersCreated,
		m.tablesClosed,
		m.tableCloseComandas,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordPointTransaction counts a ledger movement
func (m *Metrics) RecordPointTransaction(kind, outcome string) {
	m.pointTransactions.WithLabelValues(kind, outcome).Inc()
}

// RecordComandaStatus counts a comanda transition
func (m *Metrics) RecordComandaStatus(status string) {
	m.comandaTransitions.WithLabelValues(status).Inc()
}

// RecordOrderCreated counts an order item
func (m *Metrics) RecordOrderCreated(source string) {
	m.ordersCreated.WithLabelValues(source).Inc()
}

// RecordTableClosed counts a table close and the comandas it settled
func (m *Metrics) RecordTableClosed(settled int) {
	m.tablesClosed.Inc()
	m.tableCloseComandas.Observe(float64(settled))
}

// GinMiddleware records request count and latency. Routes are labelled by
// their pattern so path parameters do not explode cardinality; unmatched
// requests share one label.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
