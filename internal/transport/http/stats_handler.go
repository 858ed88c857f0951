package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "regpulse/internal/errors"
	"regpulse/internal/store"
)

// StatsHandler serves the latest statistics snapshot and run report.
type StatsHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(s *store.Store, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsHandler{store: s, logger: logger}
}

// GetSnapshot returns the current statistics document.
func (h *StatsHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.store.LatestSnapshot(r.Context())
	if err != nil {
		if store.IsNotFound(err) {
			render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrSnapshotNotFound))
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to load snapshot",
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrInternalServer))
		return
	}

	render.JSON(w, r, snapshot)
}

// GetRunReport returns the counters of the most recent pipeline run.
func (h *StatsHandler) GetRunReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.LatestRunReport(r.Context())
	if err != nil {
		if store.IsNotFound(err) {
			render.Render(w, r, apierrors.NewErrorResponse(apierrors.NotFoundError("run report")))
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to load run report",
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrInternalServer))
		return
	}

	render.JSON(w, r, report)
}
