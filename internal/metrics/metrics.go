package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Vote metrics
	VotesCastTotal    prometheus.CounterVec
	VoteFailuresTotal prometheus.CounterVec

	// Chat streaming metrics
	ChatStreamsTotal     prometheus.CounterVec
	ChatStreamDuration   prometheus.HistogramVec
	ChatFramesTotal      prometheus.CounterVec
	ChatUpstreamErrors   prometheus.CounterVec

	// Database metrics
	DatabaseQueryDuration prometheus.HistogramVec
	DatabaseQueriesTotal  prometheus.CounterVec

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			VotesCastTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "votes_cast_total",
					Help: "Total number of vote operations applied",
				},
				[]string{"target", "direction"},
			),
			VoteFailuresTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "vote_failures_total",
					Help: "Total number of vote operations that failed",
				},
				[]string{"target", "reason"},
			),

			ChatStreamsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chat_streams_total",
					Help: "Total number of AI chat streams by outcome",
				},
				[]string{"outcome"},
			),
			ChatStreamDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "chat_stream_duration_seconds",
					Help:    "End-to-end duration of AI chat streams",
					Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
				},
				[]string{"outcome"},
			),
			ChatFramesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chat_frames_total",
					Help: "Total number of stream frames processed",
				},
				[]string{"kind"},
			),
			ChatUpstreamErrors: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chat_upstream_errors_total",
					Help: "Total number of upstream AI provider errors",
				},
				[]string{"status"},
			),

			DatabaseQueryDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "database_query_duration_seconds",
					Help:    "Database query latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
				},
				[]string{"query_type", "table"},
			),
			DatabaseQueriesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "database_queries_total",
					Help: "Total number of database queries",
				},
				[]string{"query_type", "table", "status"},
			),

			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of rate limited requests",
				},
				[]string{"endpoint", "method"},
			),

			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of application errors",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	return Initialize()
}
