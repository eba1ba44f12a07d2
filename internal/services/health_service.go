package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"expenditure/internal/config"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunTracker exposes the run currently in progress, if any
type RunTracker interface {
	Active() (string, bool)
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     *config.Paths
	database  Pinger
	runs      RunTracker
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Uptime    float64                  `json:"uptime_seconds"`
	ActiveRun string                   `json:"active_run,omitempty"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. database and runs may be nil.
func NewHealthService(version string, paths *config.Paths, database Pinger, runs RunTracker, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthService{
		version:   version,
		paths:     paths,
		database:  database,
		runs:      runs,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status with per-dependency readiness
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Uptime:    time.Since(hs.startTime).Seconds(),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
		Services: map[string]ServiceHealth{
			"raw_data": hs.checkRawDir(),
			"database": hs.checkDatabase(ctx),
		},
	}

	if hs.runs != nil {
		if id, ok := hs.runs.Active(); ok {
			status.ActiveRun = id
		}
	}

	for _, service := range status.Services {
		if service.Status == "not_ready" {
			status.Status = "degraded"
			break
		}
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed", slog.String("status", status.Status))
	return status
}

// checkRawDir checks that the input directory exists
func (hs *HealthService) checkRawDir() ServiceHealth {
	info, err := os.Stat(hs.paths.RawDir)
	if err != nil || !info.IsDir() {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "Raw directory not found: " + hs.paths.RawDir,
		}
	}
	return ServiceHealth{Status: "ready"}
}

// checkDatabase pings the database when one is configured
func (hs *HealthService) checkDatabase(ctx context.Context) ServiceHealth {
	if hs.database == nil {
		return ServiceHealth{Status: "disabled"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := hs.database.Ping(ctx); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "Database unreachable: " + err.Error(),
		}
	}
	return ServiceHealth{Status: "ready"}
}
