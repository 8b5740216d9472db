package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bopcli/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Paths.UploadDir = filepath.Join(dir, "uploads")
	cfg.Paths.OutputDir = filepath.Join(dir, "output")
	return cfg
}

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService("1.2.3", testConfig(t), nil, quietLogger())

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Contains(t, status.Runtime, "goroutines")
	assert.Contains(t, status.Runtime, "uptime_seconds")
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	cfg := testConfig(t)
	hs := NewHealthService("dev", cfg, nil, quietLogger())

	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, "disabled", status.Services["store"].(ServiceHealth).Status)
	assert.Equal(t, "disabled", status.Services["narrative"].(ServiceHealth).Status)
	assert.Equal(t, "ready", status.Services["uploads"].(ServiceHealth).Status)

	_, err := os.Stat(cfg.Paths.UploadDir)
	assert.NoError(t, err)
}

func TestHealthService_ReadinessWithStoreAndNarrative(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = config.DriverSQLite
	cfg.Narrative.Enabled = true
	cfg.Narrative.OpenAIAPIKey = "sk-test"

	hs := NewHealthService("dev", cfg, &listStore{}, quietLogger())
	status := hs.ReadinessCheck(context.Background())

	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, ServiceHealth{Status: "ready", Message: "sqlite"}, status.Services["store"])
	assert.Equal(t, "ready", status.Services["narrative"].(ServiceHealth).Status)
}

func TestHealthService_NotReady(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.Paths.OutputDir = filepath.Join(blocker, "output")

	status := NewHealthService("dev", cfg, nil, quietLogger()).ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status)
	assert.Equal(t, "error", status.Services["output"].(ServiceHealth).Status)
}

func TestHealthService_Version(t *testing.T) {
	info := NewHealthService("1.0.0", testConfig(t), nil, nil).Version()
	assert.Equal(t, "1.0.0", info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.StartTime)
}
