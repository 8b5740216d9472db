package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Resolve turns the configured relative directories into absolute paths under base
func (p *PathsConfig) Resolve(base string) {
	for _, dir := range []*string{&p.InputDir, &p.OutputDir, &p.UploadDir} {
		if *dir != "" && !filepath.IsAbs(*dir) {
			*dir = filepath.Join(base, *dir)
		}
	}
}

// EnsureDirectories creates the output and upload directories if they don't exist
func (p *PathsConfig) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.UploadDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
