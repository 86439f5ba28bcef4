package infrastructure

import (
	"runtime"
	"time"
)

// RuntimeStats is a snapshot of the Go runtime for health reporting.
type RuntimeStats struct {
	Goroutines    int     `json:"goroutines"`
	HeapAllocMB   uint64  `json:"heap_alloc_mb"`
	SystemMB      uint64  `json:"system_mb"`
	GCCount       uint32  `json:"gc_count"`
	CPUCount      int     `json:"cpu_count"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// CollectRuntimeStats reads the runtime memory statistics.
func CollectRuntimeStats(startTime time.Time) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return RuntimeStats{
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   mem.Alloc / 1024 / 1024,
		SystemMB:      mem.Sys / 1024 / 1024,
		GCCount:       mem.NumGC,
		CPUCount:      runtime.NumCPU(),
		UptimeSeconds: time.Since(startTime).Seconds(),
	}
}
