// Command web serves the pipeline over HTTP: run triggers, statistics
// and run-report endpoints, websocket progress, health and metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"regpulse/internal/analytics"
	"regpulse/internal/config"
	"regpulse/internal/dataprocessing"
	"regpulse/internal/infrastructure"
	"regpulse/internal/matching"
	"regpulse/internal/operations"
	"regpulse/internal/rosters"
	"regpulse/internal/scraper"
	"regpulse/internal/store"
	transport "regpulse/internal/transport/http"
	"regpulse/internal/websocket"
	"regpulse/pkg/contracts"
)

func main() {
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC RECOVERED: %v\n%s\n", r, debug.Stack())
			if logger != nil {
				logger.Error("server panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Paths.EnsureDirectories(); err != nil {
		fmt.Printf("Error: failed to create directories: %v\n", err)
		os.Exit(1)
	}

	logger, err = infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	providers, err := infrastructure.InitializeOTel(nil, logger)
	if err != nil {
		return fmt.Errorf("initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancelShutdown()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("observability shutdown failed", slog.String("error", err.Error()))
		}
	}()

	db, err := store.Open(cfg.Paths.DatabaseFile, logger)
	if err != nil {
		return err
	}

	loader, err := rosters.NewSheetsLoader(ctx, cfg.Rosters, logger)
	if err != nil {
		return err
	}

	var source scraper.ReportSource
	if cfg.Source.FilePath != "" {
		source = scraper.NewFileSource(cfg.Source.FilePath, logger)
	} else {
		source = scraper.NewPortalSource(cfg.Source, logger)
	}

	hub := websocket.NewHub(logger)
	defer hub.Close()

	manager, err := operations.NewManager(logger, providers.Tracer, providers.Meter, hub, db,
		&operations.FetchStep{Source: source, Rosters: loader, Logger: logger},
		&operations.NormalizeStep{Normalizer: dataprocessing.NewNormalizer(logger)},
		&operations.ExpandStep{},
		&operations.BackfillStep{},
		&operations.MatchStep{
			Matcher:     matching.NewMatcher(logger, cfg.Matching.CountryCode),
			CountryCode: cfg.Matching.CountryCode,
		},
		&operations.AggregateStep{
			Aggregator: analytics.NewAggregator(logger, cfg.ReferralCutoffDate()),
		},
		&operations.PersistStep{Store: db},
	)
	if err != nil {
		return err
	}

	router := transport.NewRouter(transport.RouterDeps{
		Stats:      transport.NewStatsHandler(db, logger),
		Operations: transport.NewOperationsHandler(manager, cfg.Server.RunTimeout, logger),
		Health:     transport.NewHealthHandler(db, contracts.Version),
		Progress:   hub,
		Metrics:    providers.PrometheusHTTP,
		Logger:     logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}
