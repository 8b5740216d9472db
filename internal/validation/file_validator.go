// Package validation checks command-line inputs before a batch starts.
package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bopcli/internal/files"
)

// ErrNoInputs is returned when a directory holds nothing loadable
var ErrNoInputs = errors.New("no loadable input files")

// FileValidator checks input, output and rule-table paths
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ResolveInputs validates path and returns the files to run. A file must be
// a supported format; a directory is expanded to its supported files sorted
// by name, skipping Office lock files.
func (v *FileValidator) ResolveInputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("Input path is not accessible",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("input %s: %w", path, err)
	}

	if !info.IsDir() {
		if err := v.ValidateInputFile(path); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	found, err := files.NewDiscovery("").FindInputs(path)
	if err != nil {
		return nil, err
	}
	inputs := make([]string, 0, len(found))
	for _, f := range found {
		if isLockFile(f.Name) {
			v.logger.Debug("Skipping lock file", slog.String("file", f.Path))
			continue
		}
		inputs = append(inputs, f.Path)
	}
	if len(inputs) == 0 {
		v.logger.Warn("No input files found", slog.String("directory", path))
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, path)
	}

	v.logger.Info("Input directory validated",
		slog.String("directory", path),
		slog.Int("files_found", len(inputs)))
	return inputs, nil
}

// ValidateInputFile checks that path is a readable CSV or Excel file
func (v *FileValidator) ValidateInputFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if !files.IsSupported(path) {
		v.logger.Error("Unsupported input format",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return &files.UnsupportedFormatError{Path: path, Extension: filepath.Ext(path)}
	}
	if isLockFile(filepath.Base(path)) {
		return fmt.Errorf("file %s is a temporary Excel lock file", path)
	}
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// isLockFile reports Office owner files such as "~$report.xlsx"
func isLockFile(name string) bool {
	return strings.HasPrefix(name, "~$")
}
