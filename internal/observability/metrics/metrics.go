package metrics

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics exposes Prometheus observability primitives for the API.
type HTTPMetrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	documents    *prometheus.CounterVec
	activityRead prometheus.Counter
}

// NewHTTPMetrics registers and returns Prometheus metrics.
func NewHTTPMetrics() *HTTPMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billfold_http_requests_total",
		Help: "Counts HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "billfold_http_duration_seconds",
		Help:    "HTTP request latency per method/route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	documents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billfold_documents_generated_total",
		Help: "Counts generated invoice documents by outcome.",
	}, []string{"status"})

	activityRead := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billfold_activity_mark_read_total",
		Help: "Counts mark-all-read operations.",
	})

	for _, c := range []prometheus.Collector{requests, duration, documents, activityRead} {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}

	return &HTTPMetrics{
		requests:     requests,
		duration:     duration,
		documents:    documents,
		activityRead: activityRead,
	}
}

// RecordDocument counts one document generation outcome.
func (m *HTTPMetrics) RecordDocument(status string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(strings.TrimSpace(status)).Inc()
}

// RecordMarkRead counts one mark-all-read settle.
func (m *HTTPMetrics) RecordMarkRead() {
	if m == nil {
		return
	}
	m.activityRead.Inc()
}

// GinMiddleware records request counts and latencies.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		status := statusLabel(c.Writer.Status())
		m.requests.WithLabelValues(c.Request.Method, route, status).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
