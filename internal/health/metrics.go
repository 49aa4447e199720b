package health

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HealthMetrics holds Prometheus metrics for host sampling.
type HealthMetrics struct {
	memoryUsage      prometheus.Gauge
	cpuUsage         prometheus.Gauge
	samplingFailures *prometheus.CounterVec
}

var (
	healthMetricsInstance *HealthMetrics
	healthMetricsOnce     sync.Once
)

// GetHealthMetrics returns the singleton health metrics instance.
func GetHealthMetrics() *HealthMetrics {
	healthMetricsOnce.Do(func() {
		healthMetricsInstance = &HealthMetrics{
			memoryUsage: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "gateway",
					Subsystem: "health",
					Name:      "memory_usage_percent",
					Help:      "Host memory usage in percent at the last health check",
				},
			),
			cpuUsage: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "gateway",
					Subsystem: "health",
					Name:      "cpu_usage_percent",
					Help:      "Host CPU usage in percent at the last health check",
				},
			),
			samplingFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "gateway",
					Subsystem: "health",
					Name:      "sampling_failures_total",
					Help:      "Total number of failed host samples",
				},
				[]string{"resource"},
			),
		}
	})
	return healthMetricsInstance
}

// MustRegister registers all health metric collectors with the given
// registry. promauto places them on the default registry; the gateway
// serves /metrics from its own.
func (m *HealthMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.memoryUsage,
		m.cpuUsage,
		m.samplingFailures,
	)
}

func (m *HealthMetrics) observe(s Snapshot) {
	m.memoryUsage.Set(s.Memory.UsagePercentage)
	m.cpuUsage.Set(s.CPU.UsagePercentage)
}
