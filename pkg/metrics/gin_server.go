// Package metrics exposes prometheus collectors for a watchtower node.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// ServerMetrics represents a collection of metrics to be registered on a
// Prometheus metrics registry for the watchtower HTTP surface.
type ServerMetrics struct {
	startedRequest *prometheus.CounterVec
	handledRequest *prometheus.CounterVec
	handlingTime   *prometheus.HistogramVec
}

func NewServerMetrics(namespace string) *ServerMetrics {
	return &ServerMetrics{
		startedRequest: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_server_started_total",
				Help:      "Total number of HTTP requests started on the server.",
			}, []string{"method", "path"}),
		handledRequest: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_server_handled_total",
				Help:      "Total number of HTTP requests completed on the server, regardless of success or failure.",
			}, []string{"code", "method", "path"}),
		handlingTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_server_handling_seconds",
				Help:      "Histogram of response latency (seconds) of requests handled by the server.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"code", "method", "path"}),
	}
}

// Describe sends the super-set of all possible descriptors of metrics
// collected by this Collector to the provided channel.
func (m *ServerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.startedRequest.Describe(ch)
	m.handledRequest.Describe(ch)
	m.handlingTime.Describe(ch)
}

// Collect is called by the Prometheus registry when collecting metrics.
func (m *ServerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.startedRequest.Collect(ch)
	m.handledRequest.Collect(ch)
	m.handlingTime.Collect(ch)
}

// MiddlewareHandler returns a gin middleware recording request counters and
// handling latency.
func (m *ServerMetrics) MiddlewareHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		start := time.Now()
		m.startedRequest.WithLabelValues(method, path).Inc()

		c.Next()

		code := strconv.Itoa(c.Writer.Status())
		m.handledRequest.WithLabelValues(code, method, path).Inc()
		m.handlingTime.WithLabelValues(code, method, path).Observe(time.Since(start).Seconds())
	}
}
