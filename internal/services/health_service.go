package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"esgcli/internal/config"
	"esgcli/internal/infrastructure"
	"esgcli/pkg/contracts"
)

// Health states
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// HealthService provides health check functionality
type HealthService struct {
	paths     *config.Paths
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
	Checks    map[string]ServiceHealth     `json:"checks,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. paths may be nil when no
// report directory is in use.
func NewHealthService(paths *config.Paths, logger *slog.Logger) *HealthService {
	return &HealthService{
		paths:     paths,
		startTime: time.Now(),
		logger:    infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	stats := infrastructure.CollectRuntimeStats(hs.startTime)
	status := HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime:   &stats,
	}
	hs.logger.DebugContext(ctx, "health check",
		slog.String("status", status.Status),
		slog.Int("goroutines", stats.Goroutines))
	return status
}

// ReadinessCheck verifies the directories reports are written to.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Checks: map[string]ServiceHealth{
			"reports": hs.checkDir("reports", hs.reportsDir()),
		},
	}
	for name, check := range status.Checks {
		if check.Status != StatusReady {
			status.Status = StatusNotReady
			hs.logger.WarnContext(ctx, "readiness check failed",
				slog.String("check", name),
				slog.String("message", check.Message))
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	stats := infrastructure.CollectRuntimeStats(hs.startTime)
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime:   &stats,
	}
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) reportsDir() string {
	if hs.paths == nil {
		return ""
	}
	return hs.paths.ReportsDir
}

// checkDir reports a directory as ready when it exists. No directory
// configured is ready as well: results are then only returned in responses.
func (hs *HealthService) checkDir(name, dir string) ServiceHealth {
	if dir == "" {
		return ServiceHealth{Status: StatusReady, Message: name + " directory not configured"}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return ServiceHealth{Status: StatusNotReady, Message: fmt.Sprintf("%s directory unavailable: %v", name, err)}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: StatusNotReady, Message: fmt.Sprintf("%s path is not a directory: %s", name, dir)}
	}
	return ServiceHealth{Status: StatusReady}
}
