package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the service
type Metrics struct {
	registry *prometheus.Registry

	// AccessDecisions counts access-control verdicts by collection,
	// operation, and outcome.
	AccessDecisions *prometheus.CounterVec

	// OverrideChanges counts viewing-tenant override sets and clears.
	OverrideChanges *prometheus.CounterVec

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration observes request latency.
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the service collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		AccessDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sitehaven_access_decisions_total",
			Help: "Access-control verdicts by collection, operation, and outcome",
		}, []string{"collection", "operation", "verdict"}),
		OverrideChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sitehaven_viewing_tenant_changes_total",
			Help: "Viewing-tenant override changes by action (set or clear)",
		}, []string{"action"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sitehaven_http_requests_total",
			Help: "HTTP requests by method, route, and status code",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sitehaven_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RecordDecision increments the decision counter
func (m *Metrics) RecordDecision(collection, operation, verdict string) {
	m.AccessDecisions.WithLabelValues(collection, operation, verdict).Inc()
}

// RecordOverrideChange increments the override change counter
func (m *Metrics) RecordOverrideChange(action string) {
	m.OverrideChanges.WithLabelValues(action).Inc()
}

// Handler returns the /metrics endpoint handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware instruments an HTTP handler with request metrics
func (m *Metrics) Middleware(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
