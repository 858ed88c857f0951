// Package store persists the canonical registration collection and the
// serialized statistics document. Registrations are keyed by the derived
// storage id; the snapshot is one replace-on-write row.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"regpulse/pkg/contracts/domain"
)

// Store wraps the pipeline's database.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the sqlite database at path and runs
// migrations.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&RegistrationRow{}, &SnapshotRow{}, &RunReportRow{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{db: db, logger: log}, nil
}

// SaveRegistrations upserts the full canonical set in one transaction.
func (s *Store) SaveRegistrations(ctx context.Context, regs []domain.Registration) error {
	if len(regs) == 0 {
		return nil
	}

	rows := make([]RegistrationRow, 0, len(regs))
	for i := range regs {
		row, err := toRow(&regs[i])
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, 200).Error
	if err != nil {
		return fmt.Errorf("save registrations: %w", err)
	}

	s.logger.InfoContext(ctx, "registrations persisted", slog.Int("count", len(rows)))
	return nil
}

// ListRegistrations returns the full canonical set ordered by storage id.
func (s *Store) ListRegistrations(ctx context.Context) ([]domain.Registration, error) {
	var rows []RegistrationRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	regs := make([]domain.Registration, 0, len(rows))
	for i := range rows {
		reg, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

// SaveSnapshot replaces the statistics document. No history is retained.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot *domain.StatsSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("serialize snapshot: %w", err)
	}

	row := SnapshotRow{
		ID:          snapshotRowID,
		Payload:     payload,
		GeneratedAt: snapshot.GeneratedAt,
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	s.logger.InfoContext(ctx, "snapshot persisted",
		slog.Time("generated_at", snapshot.GeneratedAt))
	return nil
}

// LatestSnapshot returns the current statistics document, or gorm's
// ErrRecordNotFound when no run has completed yet.
func (s *Store) LatestSnapshot(ctx context.Context) (*domain.StatsSnapshot, error) {
	var row SnapshotRow
	if err := s.db.WithContext(ctx).First(&row, snapshotRowID).Error; err != nil {
		return nil, err
	}

	var snapshot domain.StatsSnapshot
	if err := json.Unmarshal(row.Payload, &snapshot); err != nil {
		return nil, fmt.Errorf("deserialize snapshot: %w", err)
	}
	return &snapshot, nil
}

// SaveRunReport appends one run's counters.
func (s *Store) SaveRunReport(ctx context.Context, report *domain.RunReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("serialize run report: %w", err)
	}
	row := RunReportRow{
		RunID:      report.RunID,
		Payload:    payload,
		FinishedAt: report.FinishedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save run report: %w", err)
	}
	return nil
}

// LatestRunReport returns the most recent run's counters.
func (s *Store) LatestRunReport(ctx context.Context) (*domain.RunReport, error) {
	var row RunReportRow
	if err := s.db.WithContext(ctx).Order("finished_at DESC").First(&row).Error; err != nil {
		return nil, err
	}
	var report domain.RunReport
	if err := json.Unmarshal(row.Payload, &report); err != nil {
		return nil, fmt.Errorf("deserialize run report: %w", err)
	}
	return &report, nil
}

// IsNotFound reports whether err means no row exists.
func IsNotFound(err error) bool {
	return err == gorm.ErrRecordNotFound ||
		(err != nil && err.Error() == gorm.ErrRecordNotFound.Error())
}

func toRow(reg *domain.Registration) (RegistrationRow, error) {
	invitees, err := json.Marshal(reg.Invitees)
	if err != nil {
		return RegistrationRow{}, fmt.Errorf("serialize invitees for %s: %w", reg.ID, err)
	}
	return RegistrationRow{
		ID:            reg.ID,
		TransactionID: reg.TransactionID,
		FirstName:     reg.Identity.FirstName,
		LastName:      reg.Identity.LastName,
		DisplayName:   reg.Identity.DisplayName,
		Phone:         reg.Contact.Phone,
		Email:         reg.Contact.Email,
		Age:           reg.Age,
		FormVersion:   string(reg.FormVersion),
		Amount:        reg.Ticket.Amount,
		Complimentary: reg.Ticket.Complimentary,
		SeatInfo:      reg.Ticket.SeatInfo,
		Quantity:      reg.Ticket.Quantity,
		TxnDate:       reg.Transaction.Date,
		Venue:         reg.Transaction.Venue,
		Session:       reg.Transaction.Session,
		EventName:     reg.Transaction.EventName,
		ShowDate:      reg.Transaction.ShowDate,
		InviteesJSON:  invitees,
		UpdatedAt:     time.Now().UTC(),
	}, nil
}

func fromRow(row *RegistrationRow) (domain.Registration, error) {
	reg := domain.Registration{
		ID:            row.ID,
		TransactionID: row.TransactionID,
		Identity: domain.Identity{
			FirstName:   row.FirstName,
			LastName:    row.LastName,
			DisplayName: row.DisplayName,
		},
		Contact: domain.Contact{
			Phone: row.Phone,
			Email: row.Email,
		},
		Age:         row.Age,
		FormVersion: domain.FormVersion(row.FormVersion),
		Ticket: domain.TicketMeta{
			Amount:        row.Amount,
			Complimentary: row.Complimentary,
			SeatInfo:      row.SeatInfo,
			Quantity:      row.Quantity,
		},
		Transaction: domain.TransactionMeta{
			Date:      row.TxnDate,
			Venue:     row.Venue,
			Session:   row.Session,
			EventName: row.EventName,
			ShowDate:  row.ShowDate,
		},
	}
	if len(row.InviteesJSON) > 0 {
		if err := json.Unmarshal(row.InviteesJSON, &reg.Invitees); err != nil {
			return domain.Registration{}, fmt.Errorf("deserialize invitees for %s: %w", row.ID, err)
		}
	}
	return reg, nil
}
