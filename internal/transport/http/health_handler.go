package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"regpulse/internal/store"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	store   *store.Store
	started time.Time
	version string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(s *store.Store, version string) *HealthHandler {
	return &HealthHandler{store: s, started: time.Now().UTC(), version: version}
}

// Liveness always reports ok while the process is up.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).String(),
	})
}

// Readiness verifies the store can be queried. A missing snapshot is
// still ready; a broken database is not.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.LatestSnapshot(r.Context()); err != nil && !store.IsNotFound(err) {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	render.JSON(w, r, map[string]string{"status": "ready"})
}
