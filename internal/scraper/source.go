// Package scraper retrieves the raw registration report. The browser
// session that talks to the report portal lives here, behind the
// ReportSource interface, so the pipeline core never touches I/O.
package scraper

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"regpulse/internal/dataprocessing"
	"regpulse/internal/validation"
)

// ReportSource supplies the raw positional rows of the registration
// report. The fetch completes (or fails) before normalization begins.
type ReportSource interface {
	FetchRows(ctx context.Context) ([][]string, error)
}

// FileSource reads an already-downloaded report workbook.
type FileSource struct {
	Path   string
	logger *slog.Logger
}

// NewFileSource creates a ReportSource over a workbook on disk.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{Path: path, logger: logger}
}

// FetchRows parses the report file into raw rows. The extension picks
// the parser: workbook, comma-separated, or tab-separated text.
func (s *FileSource) FetchRows(ctx context.Context) ([][]string, error) {
	if err := validation.ValidateReportFile(s.Path); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "reading report file", slog.String("path", s.Path))

	ext := strings.ToLower(filepath.Ext(s.Path))
	if ext == ".xlsx" {
		return dataprocessing.ParseWorkbook(s.Path)
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if ext == ".csv" {
		return dataprocessing.ParseCSV(f)
	}
	return dataprocessing.ParseDelimited(f)
}
