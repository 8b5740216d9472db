package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wideCSV = "Description,Jul-13,Aug-13\n" +
	"Exports of goods fob,100,105\n" +
	"Imports of goods fob,60,65\n"

type cliResult struct {
	RunID       string   `json:"run_id"`
	Input       string   `json:"input"`
	Status      string   `json:"status"`
	RecordCount int      `json:"record_count"`
	FailedStep  string   `json:"failed_step"`
	Exports     []string `json:"exports"`
}

// writeConfig points every path at dir so nothing from the working
// directory leaks into the run
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := "paths:\n" +
		"  output_dir: " + filepath.Join(dir, "out") + "\n" +
		"  upload_dir: " + filepath.Join(dir, "uploads") + "\n" +
		"logging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (int, []cliResult, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)

	var results []cliResult
	if stdout.Len() > 0 {
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &results), stdout.String())
	}
	return code, results, stderr.String()
}

func TestRun_SingleFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bop.csv")
	require.NoError(t, os.WriteFile(input, []byte(wideCSV), 0o644))

	code, results, stderr := runCLI(t, "-config", writeConfig(t, dir), "-in", input)
	require.Equal(t, exitOK, code, stderr)
	require.Len(t, results, 1)

	assert.Equal(t, "completed", results[0].Status)
	assert.NotZero(t, results[0].RecordCount)
	require.Len(t, results[0].Exports, 2)
	assert.FileExists(t, filepath.Join(dir, "out", "bop_indicators.csv"))
	assert.FileExists(t, filepath.Join(dir, "out", "bop_fiscal_years.csv"))
}

func TestRun_DirectoryWithFailure(t *testing.T) {
	dir := t.TempDir()
	inDir := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(inDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "a.csv"), []byte(wideCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "b.csv"), []byte("Description,Notes\nExports of goods fob,n/a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "readme.txt"), []byte("ignored"), 0o644))

	code, results, _ := runCLI(t, "-config", writeConfig(t, dir), "-in", inDir, "-workers", "2", "-no-export")
	assert.Equal(t, exitFailed, code)
	require.Len(t, results, 2)

	assert.Equal(t, "completed", results[0].Status)
	assert.Empty(t, results[0].Exports)
	assert.Equal(t, "failed", results[1].Status)
	assert.Equal(t, "normalize", results[1].FailedStep)
}

func TestRun_UsageErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.MkdirAll(empty, 0o755))

	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-bogus"}},
		{"positional argument", []string{"-config", cfg, "extra"}},
		{"missing input", []string{"-config", cfg, "-in", filepath.Join(dir, "absent.csv")}},
		{"empty directory", []string{"-config", cfg, "-in", empty}},
		{"bad config file", []string{"-config", filepath.Join(dir, "absent.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, results, _ := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Empty(t, results)
		})
	}
}

func TestRun_Help(t *testing.T) {
	code, _, stderr := runCLI(t, "-h")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "-narrate")
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-version"}, &stdout, &stderr)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout.String(), "bopcli v")
}
