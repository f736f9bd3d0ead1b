package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP collectors on their own registry
type Metrics struct {
	registry        *prometheus.Registry
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     prometheus.Counter
}

// NewMetrics creates the collectors and registers them with the Go and
// process collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volunteer_hub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status", "backend"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volunteer_hub_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "backend"},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "volunteer_hub_rate_limited_total",
				Help: "Requests rejected by the login rate limiter",
			},
		),
	}
	m.registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) observe(method, route string, status int, backend string, elapsed time.Duration) {
	m.requestTotal.WithLabelValues(method, route, strconv.Itoa(status), backend).Inc()
	m.requestDuration.WithLabelValues(method, route, backend).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
