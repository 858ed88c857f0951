// Command pipeline runs the registration pipeline once and exits:
// fetch the report and rosters, normalize, expand, backfill, match,
// aggregate, persist, and optionally export CSVs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"regpulse/internal/analytics"
	"regpulse/internal/config"
	"regpulse/internal/dataprocessing"
	"regpulse/internal/exporter"
	"regpulse/internal/infrastructure"
	"regpulse/internal/matching"
	"regpulse/internal/operations"
	"regpulse/internal/rosters"
	"regpulse/internal/scraper"
	"regpulse/internal/store"
)

func main() {
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC RECOVERED: %v\n%s\n", r, debug.Stack())
			if logger != nil {
				logger.Error("pipeline panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	reportFile := flag.String("report", "", "path to an already-downloaded report workbook (skips the portal session)")
	headless := flag.Bool("headless", true, "run the portal browser session headless")
	export := flag.Bool("export", true, "write CSV exports after the run")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *reportFile != "" {
		cfg.Source.FilePath = *reportFile
	}
	cfg.Source.Headless = *headless

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

	if err := run(cfg, logger, *export); err != nil {
		logger.Error("pipeline run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, export bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, cfg.Server.RunTimeout)
	defer cancelTimeout()
	ctx = infrastructure.WithTraceID(ctx, infrastructure.GenerateTraceID())

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

	manager, err := operations.NewManager(logger, nil, nil, nil, db,
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

	report, err := manager.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("run summary",
		slog.String("run_id", report.RunID),
		slog.Int("rows_total", report.RowsTotal),
		slog.Int("rows_parsed", report.RowsParsed),
		slog.Int("malformed_rows", report.MalformedRows),
		slog.Int("expanded_tickets", report.ExpandedTickets),
		slog.Int("backfilled_records", report.BackfilledRecords),
		slog.Int("members_matched", report.MembersMatched),
		slog.Int("name_only_accepted", report.NameOnlyAccepted),
		slog.Int("ambiguous_rejected", report.AmbiguousRejected),
		slog.Int("unmatched_members", report.UnmatchedMembers),
		slog.Int("returning_records", report.ReturningRecords))

	if export {
		return writeExports(ctx, cfg, logger, db)
	}
	return nil
}

func writeExports(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *store.Store) error {
	snapshot, err := db.LatestSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot for export: %w", err)
	}
	regs, err := db.ListRegistrations(ctx)
	if err != nil {
		return fmt.Errorf("load registrations for export: %w", err)
	}

	w := exporter.NewCSVWriter(cfg.Paths.ExportsDir, logger)
	if err := w.ExportSnapshot("stats.csv", snapshot); err != nil {
		return err
	}
	return w.ExportRegistrations("registrations.csv", regs)
}
