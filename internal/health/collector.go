package health

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vyrodovalexey/avaroute/internal/observability"
)

const bytesPerMB = 1024 * 1024

// Collector builds health snapshots.
type Collector struct {
	sampler Sampler
	start   *StartMarker
	clock   func() time.Time
	logger  observability.Logger
	metrics *HealthMetrics
}

// Option is a functional option for configuring the collector.
type Option func(*Collector)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(c *Collector) {
		c.clock = clock
	}
}

// WithLogger sets the logger for the collector.
func WithLogger(logger observability.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder for the collector.
func WithMetrics(m *HealthMetrics) Option {
	return func(c *Collector) {
		c.metrics = m
	}
}

// NewCollector creates a collector reading the host through sampler and
// measuring uptime from start. A nil start reports zero uptime.
func NewCollector(sampler Sampler, start *StartMarker, opts ...Option) *Collector {
	c := &Collector{
		sampler: sampler,
		start:   start,
		clock:   time.Now,
		logger:  observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Snapshot samples the host and returns a health report. Sampling errors
// are returned as is; the caller decides how to surface them.
func (c *Collector) Snapshot(ctx context.Context) (Snapshot, error) {
	now := c.clock()

	used, total, err := c.sampler.Memory(ctx)
	if err != nil {
		c.recordFailure("memory", err)
		return Snapshot{}, fmt.Errorf("failed to sample memory: %w", err)
	}

	cores, err := c.sampler.CPUPercents(ctx)
	if err != nil {
		c.recordFailure("cpu", err)
		return Snapshot{}, fmt.Errorf("failed to sample cpu: %w", err)
	}

	snap := Snapshot{
		Status:    StatusHealthy,
		Timestamp: now.UTC().Format(time.RFC3339),
		Uptime:    FormatUptime(c.start.Uptime(now)),
		Memory: MemoryInfo{
			UsedMB:          round2(float64(used) / bytesPerMB),
			TotalMB:         round2(float64(total) / bytesPerMB),
			UsagePercentage: memoryPercent(used, total),
		},
		CPU: CPUInfo{
			UsagePercentage: cpuPercent(cores),
		},
	}

	if c.metrics != nil {
		c.metrics.observe(snap)
	}

	return snap, nil
}

func (c *Collector) recordFailure(resource string, err error) {
	c.logger.Warn("host sampling failed",
		observability.String("resource", resource),
		observability.Error(err),
	)
	if c.metrics != nil {
		c.metrics.samplingFailures.WithLabelValues(resource).Inc()
	}
}

// FormatUptime renders d as zero-padded HH:MM:SS. Hours are not wrapped
// at 24.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

func memoryPercent(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return round2(clampPercent(float64(used) / float64(total) * 100))
}

func cpuPercent(cores []float64) float64 {
	if len(cores) == 0 {
		return 0
	}
	var sum float64
	for _, p := range cores {
		sum += p
	}
	return round2(clampPercent(sum / float64(len(cores))))
}

func clampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
