package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathsConfig contains file system paths configuration.
type PathsConfig struct {
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	DownloadsDir string `yaml:"downloads_dir" envconfig:"DOWNLOADS_DIR"`
	ExportsDir   string `yaml:"exports_dir" envconfig:"EXPORTS_DIR"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
	DatabaseFile string `yaml:"database_file" envconfig:"DATABASE_FILE"`
}

// resolve fills derived paths from DataDir and makes everything absolute.
func (p *PathsConfig) resolve() error {
	if p.DataDir == "" {
		p.DataDir = "data"
	}
	abs, err := filepath.Abs(p.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	p.DataDir = abs

	if p.DownloadsDir == "" {
		p.DownloadsDir = filepath.Join(p.DataDir, "downloads")
	}
	if p.ExportsDir == "" {
		p.ExportsDir = filepath.Join(p.DataDir, "exports")
	}
	if p.DatabaseFile == "" {
		p.DatabaseFile = filepath.Join(p.DataDir, "regpulse.db")
	}
	if p.LogsDir == "" {
		p.LogsDir = "logs"
	}
	if abs, err := filepath.Abs(p.LogsDir); err == nil {
		p.LogsDir = abs
	}
	return nil
}

// EnsureDirectories creates every directory the pipeline writes to.
func (p *PathsConfig) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.DownloadsDir, p.ExportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetLogPath returns the path of a named log file inside LogsDir.
func (p *PathsConfig) GetLogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}
