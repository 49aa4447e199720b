package proxy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for upstream calls.
type Metrics struct {
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	breakerState     *prometheus.GaugeVec
	registry         *prometheus.Registry
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "gateway"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream calls by route and outcome",
		},
		[]string{"route", "outcome"},
	)

	m.upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "upstream_duration_seconds",
			Help:      "Upstream call duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"route", "outcome"},
	)

	m.breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per route (0=closed, 1=half-open, 2=open)",
		},
		[]string{"route"},
	)

	m.registry.MustRegister(m.upstreamRequests, m.upstreamDuration, m.breakerState)

	return m
}

// RecordUpstream records a completed dispatch.
func (m *Metrics) RecordUpstream(route string, kind Kind, duration time.Duration) {
	outcome := kind.String()
	m.upstreamRequests.WithLabelValues(route, outcome).Inc()
	m.upstreamDuration.WithLabelValues(route, outcome).Observe(duration.Seconds())
}

// SetBreakerState records a circuit breaker state change.
func (m *Metrics) SetBreakerState(route string, state int) {
	m.breakerState.WithLabelValues(route).Set(float64(state))
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MustRegister registers the metrics with the given registry.
func (m *Metrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.upstreamRequests, m.upstreamDuration, m.breakerState)
}
