package operations

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"regpulse/internal/analytics"
	"regpulse/internal/dataprocessing"
	"regpulse/internal/matching"
	"regpulse/internal/rosters"
	"regpulse/internal/scraper"
	"regpulse/internal/store"
)

// FetchStep retrieves the raw report and both rosters. The three
// fetches are independent and run in parallel; any failure aborts the
// run because nothing downstream can proceed without its inputs.
type FetchStep struct {
	Source  scraper.ReportSource
	Rosters rosters.Loader
	Logger  *slog.Logger
}

func (s *FetchStep) ID() string   { return StageIDFetch }
func (s *FetchStep) Name() string { return "Data Collection" }

func (s *FetchStep) Execute(ctx context.Context, state *State) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := s.Source.FetchRows(gctx)
		if err != nil {
			return fmt.Errorf("fetch report: %w", err)
		}
		state.Rows = rows
		return nil
	})
	g.Go(func() error {
		members, err := s.Rosters.LoadMembers(gctx)
		if err != nil {
			return fmt.Errorf("fetch members roster: %w", err)
		}
		state.Members = members
		return nil
	})
	g.Go(func() error {
		historical, err := s.Rosters.LoadHistorical(gctx)
		if err != nil {
			return fmt.Errorf("fetch historical roster: %w", err)
		}
		state.Historical = historical
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	s.Logger.InfoContext(ctx, "inputs fetched",
		slog.Int("rows", len(state.Rows)),
		slog.Int("members", len(state.Members)),
		slog.Int("historical", len(state.Historical)))

	state.recordStageCount(StageIDFetch, len(state.Rows))
	return nil
}

// NormalizeStep maps raw rows onto the canonical schema.
type NormalizeStep struct {
	Normalizer *dataprocessing.Normalizer
}

func (s *NormalizeStep) ID() string   { return StageIDNormalize }
func (s *NormalizeStep) Name() string { return "Schema Normalization" }

func (s *NormalizeStep) Execute(ctx context.Context, state *State) error {
	result := s.Normalizer.NormalizeBatch(ctx, state.Rows)
	state.Registrations = result.Registrations
	state.Report.RowsTotal = result.RowsTotal
	state.Report.RowsParsed = len(result.Registrations)
	state.Report.MalformedRows = result.Malformed
	state.Report.ParseWarnings = result.ParseWarnings
	state.recordStageCount(StageIDNormalize, len(state.Registrations))
	return nil
}

// ExpandStep turns multi-ticket complimentary records into one record
// per ticket.
type ExpandStep struct{}

func (s *ExpandStep) ID() string   { return StageIDExpand }
func (s *ExpandStep) Name() string { return "Ticket Expansion" }

func (s *ExpandStep) Execute(ctx context.Context, state *State) error {
	expanded, added := dataprocessing.Expand(state.Registrations)
	state.Registrations = expanded
	state.Report.ExpandedTickets = added
	state.recordStageCount(StageIDExpand, len(state.Registrations))
	return nil
}

// BackfillStep propagates transaction fields from each group's primary
// record into its incomplete siblings.
type BackfillStep struct{}

func (s *BackfillStep) ID() string   { return StageIDBackfill }
func (s *BackfillStep) Name() string { return "Transaction Backfill" }

func (s *BackfillStep) Execute(ctx context.Context, state *State) error {
	state.Report.BackfilledRecords = dataprocessing.Backfill(state.Registrations)
	state.recordStageCount(StageIDBackfill, len(state.Registrations))
	return nil
}

// MatchStep links roster members to registrations and computes the
// returning flags from the historical roster.
type MatchStep struct {
	Matcher     *matching.Matcher
	CountryCode string
}

func (s *MatchStep) ID() string   { return StageIDMatch }
func (s *MatchStep) Name() string { return "Member Matching" }

func (s *MatchStep) Execute(ctx context.Context, state *State) error {
	result := s.Matcher.Match(ctx, state.Registrations, state.Members)
	state.Links = result.Links
	state.Report.MembersMatched = len(result.Links)
	state.Report.NameOnlyAccepted = result.NameOnlyAccepted
	state.Report.AmbiguousRejected = result.AmbiguousRejected
	state.Report.UnmatchedMembers = result.UnmatchedMembers
	state.Report.NonMemberRecords = len(state.Registrations) - len(result.Links)

	idx := matching.NewHistoricalIndex(state.Historical, s.CountryCode)
	state.Returning = idx.ReturningFlags(state.Registrations)
	for _, returning := range state.Returning {
		if returning {
			state.Report.ReturningRecords++
		}
	}

	state.recordStageCount(StageIDMatch, len(state.Links))
	return nil
}

// AggregateStep computes the statistics snapshot.
type AggregateStep struct {
	Aggregator *analytics.Aggregator
}

func (s *AggregateStep) ID() string   { return StageIDAggregate }
func (s *AggregateStep) Name() string { return "Statistics Aggregation" }

func (s *AggregateStep) Execute(ctx context.Context, state *State) error {
	state.Snapshot = s.Aggregator.BuildSnapshot(ctx,
		state.Registrations, state.Links, state.Returning, state.Members)
	state.recordStageCount(StageIDAggregate, len(state.Snapshot.DailyTrend))
	return nil
}

// PersistStep writes the canonical set, the snapshot and the run report.
type PersistStep struct {
	Store *store.Store
}

func (s *PersistStep) ID() string   { return StageIDPersist }
func (s *PersistStep) Name() string { return "Persistence" }

func (s *PersistStep) Execute(ctx context.Context, state *State) error {
	if err := s.Store.SaveRegistrations(ctx, state.Registrations); err != nil {
		return err
	}
	if err := s.Store.SaveSnapshot(ctx, state.Snapshot); err != nil {
		return err
	}
	state.recordStageCount(StageIDPersist, len(state.Registrations))
	return nil
}
