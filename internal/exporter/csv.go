// Package exporter writes pipeline outputs as CSV files for use in
// spreadsheets.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// CSVWriter writes CSV files under the exports directory.
type CSVWriter struct {
	exportsDir string
	logger     *slog.Logger
}

// NewCSVWriter creates a writer rooted at exportsDir.
func NewCSVWriter(exportsDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{exportsDir: exportsDir, logger: logger}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Headers []string
	Records [][]string
	// BOMPrefix adds a UTF-8 BOM so Excel detects the encoding.
	BOMPrefix bool
}

// Write writes one CSV file, replacing any previous export of the same
// name.
func (w *CSVWriter) Write(name string, options WriteOptions) error {
	fullPath := filepath.Join(w.exportsDir, name)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	if err := writer.Error(); err != nil {
		return err
	}

	w.logger.Info("export written",
		slog.String("path", fullPath),
		slog.Int("records", len(options.Records)))
	return nil
}
