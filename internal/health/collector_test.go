package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSampler struct {
	used, total uint64
	cores       []float64
	memErr      error
	cpuErr      error
}

func (f *fakeSampler) Memory(context.Context) (uint64, uint64, error) {
	return f.used, f.total, f.memErr
}

func (f *fakeSampler) CPUPercents(context.Context) ([]float64, error) {
	return f.cores, f.cpuErr
}

var testStart = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func fixedClock(d time.Duration) func() time.Time {
	return func() time.Time { return testStart.Add(d) }
}

func TestCollector_Snapshot(t *testing.T) {
	t.Parallel()

	sampler := &fakeSampler{
		used:  3 * 1024 * 1024 * 1024,
		total: 8 * 1024 * 1024 * 1024,
		cores: []float64{10, 20, 30, 40.555},
	}
	c := NewCollector(sampler, NewStartMarker(testStart), WithClock(fixedClock(3723*time.Second)))

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusHealthy, snap.Status)
	assert.Equal(t, "2026-01-02T04:06:08Z", snap.Timestamp)
	assert.Equal(t, "01:02:03", snap.Uptime)
	assert.Equal(t, 3072.0, snap.Memory.UsedMB)
	assert.Equal(t, 8192.0, snap.Memory.TotalMB)
	assert.Equal(t, 37.5, snap.Memory.UsagePercentage)
	assert.Equal(t, 25.14, snap.CPU.UsagePercentage)
}

func TestCollector_DegenerateReadings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sampler *fakeSampler
		wantMem float64
		wantCPU float64
	}{
		{"zero total", &fakeSampler{used: 10, total: 0, cores: []float64{50}}, 0, 50},
		{"no cores", &fakeSampler{used: 1, total: 2, cores: nil}, 50, 0},
		{"used above total", &fakeSampler{used: 20, total: 10, cores: []float64{150, 120}}, 100, 100},
		{"negative cpu", &fakeSampler{used: 0, total: 10, cores: []float64{-5}}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			snap, err := NewCollector(tt.sampler, NewStartMarker(testStart)).Snapshot(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantMem, snap.Memory.UsagePercentage)
			assert.Equal(t, tt.wantCPU, snap.CPU.UsagePercentage)
			assert.GreaterOrEqual(t, snap.Memory.UsagePercentage, 0.0)
			assert.LessOrEqual(t, snap.Memory.UsagePercentage, 100.0)
			assert.GreaterOrEqual(t, snap.CPU.UsagePercentage, 0.0)
			assert.LessOrEqual(t, snap.CPU.UsagePercentage, 100.0)
		})
	}
}

func TestCollector_SamplingErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	_, err := NewCollector(&fakeSampler{memErr: boom}, NewStartMarker(testStart)).Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "memory")

	_, err = NewCollector(&fakeSampler{total: 1, cpuErr: boom}, NewStartMarker(testStart)).Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "cpu")
}

func TestCollector_UptimeNonDecreasing(t *testing.T) {
	t.Parallel()

	now := testStart
	c := NewCollector(&fakeSampler{total: 1}, NewStartMarker(testStart), WithClock(func() time.Time {
		now = now.Add(700 * time.Millisecond)
		return now
	}))

	prev := ""
	for i := 0; i < 20; i++ {
		snap, err := c.Snapshot(context.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, snap.Uptime, prev)
		prev = snap.Uptime
	}
}

func TestCollector_UnmarkedStart(t *testing.T) {
	t.Parallel()

	snap, err := NewCollector(&fakeSampler{total: 1}, &StartMarker{}).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "00:00:00", snap.Uptime)
}

func TestCollector_NilStart(t *testing.T) {
	t.Parallel()

	c := NewCollector(&fakeSampler{used: 1, total: 2}, nil, WithClock(fixedClock(time.Hour)))

	var snap Snapshot
	var err error
	require.NotPanics(t, func() {
		snap, err = c.Snapshot(context.Background())
	})
	require.NoError(t, err)
	assert.Equal(t, "00:00:00", snap.Uptime)
	assert.Equal(t, StatusHealthy, snap.Status)
}

func TestCollector_Metrics(t *testing.T) {
	t.Parallel()

	metrics := GetHealthMetrics()
	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	c := NewCollector(&fakeSampler{used: 1, total: 4, cores: []float64{12}},
		NewStartMarker(testStart), WithMetrics(metrics))
	_, err := c.Snapshot(context.Background())
	require.NoError(t, err)

	families, err := registry.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	require.Contains(t, byName, "gateway_health_memory_usage_percent")
	require.Contains(t, byName, "gateway_health_cpu_usage_percent")
	assert.Equal(t, 25.0, byName["gateway_health_memory_usage_percent"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 12.0, byName["gateway_health_cpu_usage_percent"].GetMetric()[0].GetGauge().GetValue())
}

func TestFormatUptime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-time.Second, "00:00:00"},
		{999 * time.Millisecond, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{25 * time.Hour, "25:00:00"},
		{100*time.Hour + 59*time.Minute + 59*time.Second, "100:59:59"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUptime(tt.d), tt.d.String())
	}
}

func TestRound2(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.23, round2(1.234))
	assert.Equal(t, 1.24, round2(1.235))
	assert.Equal(t, -1.24, round2(-1.235))
	assert.Equal(t, 0.0, round2(0.004))
}
