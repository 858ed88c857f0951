// Package contracts holds the shared data contracts of the pipeline.
package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current application version.
	Version = "1.0.0"

	// DataFormatVersion is the version of the persisted data shapes.
	DataFormatVersion = "v1"
)

var (
	// BuildTime is set at build time via ldflags.
	BuildTime = "unknown"

	// GitCommit is set at build time via ldflags.
	GitCommit = "unknown"
)

// VersionString returns the full human-readable version line.
func VersionString() string {
	return fmt.Sprintf("regpulse v%s (%s, %s/%s)",
		Version, GitCommit, runtime.GOOS, runtime.GOARCH)
}
