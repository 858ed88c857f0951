// Package rosters loads the two read-only roster inputs: the small-group
// membership roster and the multi-year historical-attendance roster.
// Sheet order is preserved because member matching is order-sensitive.
package rosters

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"regpulse/internal/config"
	"regpulse/pkg/contracts/domain"
)

// Loader fetches roster rows from the configured spreadsheet.
type Loader interface {
	LoadMembers(ctx context.Context) ([]domain.GroupMember, error)
	LoadHistorical(ctx context.Context) ([]domain.HistoricalParticipant, error)
}

// SheetsLoader reads rosters from Google Sheets.
type SheetsLoader struct {
	cfg    config.RostersConfig
	svc    *sheets.Service
	logger *slog.Logger
}

// NewSheetsLoader creates a Loader backed by the Sheets API.
func NewSheetsLoader(ctx context.Context, cfg config.RostersConfig, logger *slog.Logger) (*SheetsLoader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	svc, err := sheets.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsLoader{cfg: cfg, svc: svc, logger: logger}, nil
}

// LoadMembers fetches the group-membership roster in sheet order.
func (l *SheetsLoader) LoadMembers(ctx context.Context) ([]domain.GroupMember, error) {
	values, err := l.fetch(ctx, l.cfg.MembersRange)
	if err != nil {
		return nil, fmt.Errorf("load members roster: %w", err)
	}

	members, skipped := ParseMembers(values)
	l.logger.InfoContext(ctx, "members roster loaded",
		slog.Int("members", len(members)),
		slog.Int("skipped_rows", skipped))
	return members, nil
}

// LoadHistorical fetches the historical-attendance roster.
func (l *SheetsLoader) LoadHistorical(ctx context.Context) ([]domain.HistoricalParticipant, error) {
	values, err := l.fetch(ctx, l.cfg.HistoricalRange)
	if err != nil {
		return nil, fmt.Errorf("load historical roster: %w", err)
	}

	participants, skipped := ParseHistorical(values)
	l.logger.InfoContext(ctx, "historical roster loaded",
		slog.Int("participants", len(participants)),
		slog.Int("skipped_rows", skipped))
	return participants, nil
}

func (l *SheetsLoader) fetch(ctx context.Context, readRange string) ([][]interface{}, error) {
	resp, err := l.svc.Spreadsheets.Values.Get(l.cfg.SpreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}
