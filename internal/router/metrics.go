package router

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Lookup result label values.
const (
	resultHit  = "hit"
	resultMiss = "miss"
)

// Metrics holds Prometheus metrics for route lookups.
type Metrics struct {
	lookupsTotal *prometheus.CounterVec
	registry     *prometheus.Registry
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "gateway"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.lookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "lookups_total",
			Help:      "Total number of route table lookups by result",
		},
		[]string{"result"},
	)

	m.registry.MustRegister(m.lookupsTotal)

	return m
}

// RecordLookup records a route lookup.
func (m *Metrics) RecordLookup(hit bool) {
	result := resultMiss
	if hit {
		result = resultHit
	}
	m.lookupsTotal.WithLabelValues(result).Inc()
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MustRegister registers the metrics with the given registry.
func (m *Metrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.lookupsTotal)
}
