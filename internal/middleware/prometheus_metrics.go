package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/unsaid-app/backend/internal/metrics"
)

// MetricsMiddleware collects HTTP metrics for Prometheus
func MetricsMiddleware() gin.HandlerFunc {
	m := metrics.Get()

	return func(c *gin.Context) {
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		m.HTTPActiveConnections.WithLabelValues(method, path).Inc()
		defer m.HTTPActiveConnections.WithLabelValues(method, path).Dec()

		startTime := time.Now()

		c.Next()

		duration := time.Since(startTime).Seconds()
		// Numeric status code as string (e.g. "200", "500") so Grafana
		// queries like status=~"5.." match 5xx errors
		statusStr := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)
	}
}

// RecordVoteCast records an applied vote operation
func RecordVoteCast(target, direction string) {
	metrics.Get().VotesCastTotal.WithLabelValues(target, direction).Inc()
}

// RecordVoteFailure records a failed vote operation
func RecordVoteFailure(target, reason string) {
	metrics.Get().VoteFailuresTotal.WithLabelValues(target, reason).Inc()
}

// RecordChatStream records a completed AI chat stream
func RecordChatStream(outcome string, duration time.Duration) {
	m := metrics.Get()
	m.ChatStreamsTotal.WithLabelValues(outcome).Inc()
	m.ChatStreamDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordChatFrame records a processed stream frame
func RecordChatFrame(kind string) {
	metrics.Get().ChatFramesTotal.WithLabelValues(kind).Inc()
}

// RecordChatUpstreamError records an upstream provider error by HTTP status
func RecordChatUpstreamError(status int) {
	metrics.Get().ChatUpstreamErrors.WithLabelValues(strconv.Itoa(status)).Inc()
}

// RecordRateLimitExceeded records a rate limited request
func RecordRateLimitExceeded(endpoint, method string) {
	metrics.Get().RateLimitExceededTotal.WithLabelValues(endpoint, method).Inc()
}
