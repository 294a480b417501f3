// Package observability exposes Prometheus metrics for the HTTP layer and
// the dashboard cache.
package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	cacheOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_cache_ops_total",
			Help: "Dashboard cache operations by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	changefeedEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "changefeed_events_published_total",
			Help: "Change events published to the admin changefeed",
		},
	)
)

// RecordCacheHit increments the cache hit counter
func RecordCacheHit() { cacheOpsTotal.WithLabelValues("hit").Inc() }

// RecordCacheMiss increments the cache miss counter
func RecordCacheMiss() { cacheOpsTotal.WithLabelValues("miss").Inc() }

// RecordCacheError increments the cache error counter
func RecordCacheError() { cacheOpsTotal.WithLabelValues("error").Inc() }

// RecordChangefeedEvent increments the published change event counter
func RecordChangefeedEvent() { changefeedEventsTotal.Inc() }

// Middleware records per-request counters and latency. The route template is
// used rather than the raw path so IDs do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the /metrics endpoint handler
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
