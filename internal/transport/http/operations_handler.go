package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	apierrors "regpulse/internal/errors"
	"regpulse/internal/infrastructure"
	"regpulse/internal/operations"
)

// OperationsHandler triggers pipeline runs and reports their status.
type OperationsHandler struct {
	manager    *operations.Manager
	runTimeout time.Duration
	logger     *slog.Logger
}

// NewOperationsHandler creates an OperationsHandler. runTimeout bounds
// the detached run, not the HTTP request.
func NewOperationsHandler(manager *operations.Manager, runTimeout time.Duration, logger *slog.Logger) *OperationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if runTimeout <= 0 {
		runTimeout = 30 * time.Minute
	}
	return &OperationsHandler{manager: manager, runTimeout: runTimeout, logger: logger}
}

// StartRun launches a pipeline run in the background and returns 202.
// Progress is observable via GET /api/operations/status and the
// websocket stream.
func (h *OperationsHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	if h.manager.Running() {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrRunInProgress))
		return
	}

	// The run outlives the request; detach from the request context but
	// carry its trace id forward.
	runCtx := infrastructure.WithTraceID(context.Background(),
		infrastructure.GetTraceID(r.Context()))

	go func() {
		ctx, cancel := context.WithTimeout(runCtx, h.runTimeout)
		defer cancel()

		report, err := h.manager.Run(ctx)
		if err != nil {
			if errors.Is(err, operations.ErrRunInProgress) {
				return
			}
			h.logger.ErrorContext(ctx, "background run failed",
				slog.String("error", err.Error()))
			return
		}
		h.logger.InfoContext(ctx, "background run finished",
			slog.String("run_id", report.RunID),
			slog.Int("rows_total", report.RowsTotal),
			slog.Int("members_matched", report.MembersMatched))
	}()

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{"status": "started"})
}

// GetStatus returns the per-stage status of the current or most recent
// run.
func (h *OperationsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"running": h.manager.Running(),
		"stages":  h.manager.StepStates(),
	})
}
