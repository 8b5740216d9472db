package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"bopcli/internal/config"
	"bopcli/internal/store"
	"bopcli/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     config.PathsConfig
	store     store.Store
	driver    string
	narrative bool
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service over the configured collaborators
func NewHealthService(version string, cfg *config.Config, st store.Store, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		paths:     cfg.Paths,
		store:     st,
		driver:    cfg.Database.Driver,
		narrative: cfg.NarrativeConfigured(),
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns liveness plus runtime figures
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck reports whether the directories runs need are usable
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"uploads":   checkWritableDir(hs.paths.UploadDir),
			"output":    checkWritableDir(hs.paths.OutputDir),
			"store":     hs.checkStore(),
			"narrative": hs.checkNarrative(),
		},
	}

	for name, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status == "error" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "readiness check failed",
				slog.String("service", name),
				slog.String("message", sh.Message))
		}
	}
	return status
}

// VersionResponse is the build information plus the process start time
type VersionResponse struct {
	contracts.VersionInfo
	StartTime string `json:"start_time"`
}

// Version returns version and platform information
func (hs *HealthService) Version() VersionResponse {
	info := contracts.GetVersionInfo()
	info.Version = hs.version
	return VersionResponse{VersionInfo: info, StartTime: hs.startTime.Format(time.RFC3339)}
}

func (hs *HealthService) checkStore() ServiceHealth {
	if !store.Enabled(hs.store) {
		return ServiceHealth{Status: "disabled", Message: "no database configured"}
	}
	return ServiceHealth{Status: "ready", Message: hs.driver}
}

func (hs *HealthService) checkNarrative() ServiceHealth {
	if !hs.narrative {
		return ServiceHealth{Status: "disabled", Message: "no LLM provider key"}
	}
	return ServiceHealth{Status: "ready"}
}

// checkWritableDir creates a probe file in dir
func checkWritableDir(dir string) ServiceHealth {
	if dir == "" {
		return ServiceHealth{Status: "error", Message: "directory not configured"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ServiceHealth{Status: "error", Message: err.Error()}
	}
	probe, err := os.CreateTemp(dir, ".ready-*")
	if err != nil {
		return ServiceHealth{Status: "error", Message: fmt.Sprintf("not writable: %v", err)}
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return ServiceHealth{Status: "ready", Message: filepath.Clean(dir)}
}
