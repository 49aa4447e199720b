// Package health reports gateway liveness together with host telemetry.
//
// A Collector combines the process uptime, measured from a StartMarker
// taken at startup, with host memory and CPU utilisation read through a
// Sampler. The production sampler reads the host with gopsutil; tests
// substitute a fixed one.
//
// Every figure in a Snapshot is rounded to two decimals and percentages
// are clamped to [0, 100].
package health
