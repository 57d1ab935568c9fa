// Package metrics provides Prometheus instrumentation for the catalog.
//
// Metrics are registered with the default registerer through promauto and
// exposed at GET /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mediacatalog"

// HTTPRequests counts HTTP requests by method, route and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "http_requests_total",
	Help:      "Total HTTP requests handled.",
}, []string{"method", "route", "status"})

// HTTPDuration tracks HTTP request latency.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request latency in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

// AccessLogs counts access-log entries by outcome (recorded, dropped, failed).
var AccessLogs = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "access_logs_total",
	Help:      "Access-log entries by outcome.",
}, []string{"outcome"})

// GateRejections counts requests the access gate refused.
var GateRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "gate_rejections_total",
	Help:      "Requests rejected by the access gate by reason.",
}, []string{"reason"})

// Merges counts entity merges by kind and result.
var Merges = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "merges_total",
	Help:      "Entity merges by kind and result.",
}, []string{"kind", "result"})

// Uploads counts image uploads by result.
var Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "uploads_total",
	Help:      "Image uploads by result.",
}, []string{"result"})

// ImportedItems counts embeddable items seen by the channel importer.
var ImportedItems = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "channel_import_items_total",
	Help:      "Channel import items by outcome (created, skipped).",
}, []string{"outcome"})

// BreakerState reports the channel import circuit breaker state (0 closed, 1 half-open, 2 open).
var BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "circuit_breaker_state",
	Help:      "Circuit breaker state by name.",
}, []string{"name"})

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		HTTPRequests.WithLabelValues(c.Request.Method, route, status).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
