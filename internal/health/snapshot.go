package health

// Status represents the health status.
type Status string

const (
	// StatusHealthy indicates the service is healthy.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the host could not be sampled.
	StatusUnhealthy Status = "unhealthy"
)

// Snapshot is a point-in-time health report.
type Snapshot struct {
	Status    Status     `json:"status"`
	Timestamp string     `json:"timestamp"`
	Uptime    string     `json:"uptime"`
	Memory    MemoryInfo `json:"memory"`
	CPU       CPUInfo    `json:"cpu"`
}

// MemoryInfo describes host memory in mebibytes.
type MemoryInfo struct {
	UsedMB          float64 `json:"used_mb"`
	TotalMB         float64 `json:"total_mb"`
	UsagePercentage float64 `json:"usage_percentage"`
}

// CPUInfo describes host CPU utilisation averaged across cores.
type CPUInfo struct {
	UsagePercentage float64 `json:"usage_percentage"`
}
