package health

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Sampler reads host memory and per-core CPU utilisation.
type Sampler interface {
	// Memory returns used and total memory in bytes.
	Memory(ctx context.Context) (used, total uint64, err error)

	// CPUPercents returns the utilisation of each core in percent.
	CPUPercents(ctx context.Context) ([]float64, error)
}

// SystemSampler samples the local host with gopsutil.
type SystemSampler struct {
	interval time.Duration
}

// NewSystemSampler creates a sampler that measures CPU utilisation over
// interval. The CPU call blocks for that long.
func NewSystemSampler(interval time.Duration) *SystemSampler {
	return &SystemSampler{interval: interval}
}

// Memory implements Sampler. Used memory is total minus available, which
// leaves reclaimable page cache out of the figure.
func (s *SystemSampler) Memory(ctx context.Context) (used, total uint64, err error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, err
	}
	if vm.Available > vm.Total {
		return 0, vm.Total, nil
	}
	return vm.Total - vm.Available, vm.Total, nil
}

// CPUPercents implements Sampler.
func (s *SystemSampler) CPUPercents(ctx context.Context) ([]float64, error) {
	return cpu.PercentWithContext(ctx, s.interval, true)
}
