// internal/metrics/metrics.go

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Trend API
	TrendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viralboard_trend_api_requests_total",
			Help: "Trend API calls by outcome (success, empty, failure, rejected)",
		},
		[]string{"outcome"},
	)

	TrendBatches = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "viralboard_trend_fetch_batches",
			Help:    "Number of keyword batches issued per trend fetch",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 12},
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "viralboard_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Memoization
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viralboard_memo_lookups_total",
			Help: "Memoized function lookups by function and result (hit, miss)",
		},
		[]string{"function", "result"},
	)

	// Warehouse
	WarehouseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "viralboard_warehouse_query_duration_seconds",
			Help:    "Warehouse query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	WarehouseQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viralboard_warehouse_query_errors_total",
			Help: "Warehouse query errors by operation",
		},
		[]string{"operation"},
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viralboard_http_requests_total",
			Help: "HTTP requests by route pattern, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "viralboard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"route", "method"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viralboard_websocket_connections",
			Help: "Open dashboard WebSocket connections",
		},
	)
)
