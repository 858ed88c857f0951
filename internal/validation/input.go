// Package validation checks pipeline input files before a run starts,
// so path mistakes fail fast instead of mid-pipeline.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// reportExtensions lists the file types the parser understands.
var reportExtensions = map[string]bool{
	".xlsx": true,
	".csv":  true,
	".tsv":  true,
}

// ValidateReportFile verifies the report file exists, is a regular file
// and has a parseable extension.
func ValidateReportFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("report file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("stat report file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a report file", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("report file %s is empty", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !reportExtensions[ext] {
		return fmt.Errorf("report file %s has unsupported extension %q", path, ext)
	}
	return nil
}
