// Package http exposes the pipeline over HTTP: trigger runs, read the
// latest statistics snapshot and run report, stream progress over
// websocket, and serve health and metrics endpoints.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"regpulse/internal/middleware"
)

// RouterDeps carries everything the router needs.
type RouterDeps struct {
	Stats      *StatsHandler
	Operations *OperationsHandler
	Health     *HealthHandler
	// Progress serves the websocket progress stream.
	Progress http.Handler
	// Metrics serves the Prometheus scrape endpoint. Optional.
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewRouter builds the chi router with the standard middleware chain.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", deps.Stats.GetSnapshot)
		r.Get("/report", deps.Stats.GetRunReport)
		r.Route("/operations", func(r chi.Router) {
			r.Post("/run", deps.Operations.StartRun)
			r.Get("/status", deps.Operations.GetStatus)
		})
	})

	r.Get("/healthz", deps.Health.Liveness)
	r.Get("/readyz", deps.Health.Readiness)

	if deps.Progress != nil {
		r.Handle("/ws", deps.Progress)
	}
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	return r
}
