// Package testutil provides test helpers shared across packages.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log record.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// CaptureHandler is a slog.Handler that records everything logged
// through it, so tests can assert on log output.
type CaptureHandler struct {
	mu      sync.Mutex
	records []LogRecord
	t       *testing.T
}

// NewCaptureHandler creates a capturing handler. When t is non-nil the
// records are echoed to the test log.
func NewCaptureHandler(t *testing.T) *CaptureHandler {
	return &CaptureHandler{t: t}
}

// Logger returns a slog.Logger backed by a fresh CaptureHandler.
func Logger(t *testing.T) (*slog.Logger, *CaptureHandler) {
	h := NewCaptureHandler(t)
	return slog.New(h), h
}

func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	h.records = append(h.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *CaptureHandler) WithAttrs([]slog.Attr) slog.Handler       { return h }
func (h *CaptureHandler) WithGroup(string) slog.Handler            { return h }

// Records returns a copy of everything captured so far.
func (h *CaptureHandler) Records() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LogRecord, len(h.records))
	copy(out, h.records)
	return out
}

// HasMessage reports whether any captured record's message contains
// substr.
func (h *CaptureHandler) HasMessage(substr string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if strings.Contains(r.Message, substr) {
			return true
		}
	}
	return false
}
