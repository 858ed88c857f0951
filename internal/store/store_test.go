package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/shared/testutil"
	"regpulse/pkg/contracts/domain"
)

func newTestStore(t *testing.T) *Store {
	logger, _ := testutil.Logger(t)
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	return s
}

func sampleRegs() []domain.Registration {
	return []domain.Registration{
		{
			ID:            "T1",
			TransactionID: "T1",
			Identity:      domain.Identity{FirstName: "Disha", LastName: "Daga", DisplayName: "Disha Daga"},
			Contact:       domain.Contact{Phone: "9876543210", Email: "disha@example.com"},
			Age:           34,
			FormVersion:   domain.FormVersionLegacy,
			Ticket:        domain.TicketMeta{Amount: 500, Quantity: 1},
			Invitees:      []domain.Invitee{{Name: "Amit Shah"}, {}, {}, {}, {}},
			Transaction:   domain.TransactionMeta{Date: "05-10-2025 18:30:00", Venue: "Main Hall"},
		},
		{
			ID:            "T2_comp_1",
			TransactionID: "T2",
			Identity:      domain.Identity{DisplayName: "Diva Sheth"},
			FormVersion:   domain.FormVersionCurrent,
			Ticket:        domain.TicketMeta{Complimentary: true, Quantity: 1},
		},
	}
}

func TestSaveRegistrations_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRegistrations(ctx, sampleRegs()))

	// Re-saving the same set with a changed field replaces, not duplicates.
	regs := sampleRegs()
	regs[0].Transaction.Venue = "Annex"
	require.NoError(t, s.SaveRegistrations(ctx, regs))

	var count int64
	require.NoError(t, s.db.Model(&RegistrationRow{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	var row RegistrationRow
	require.NoError(t, s.db.First(&row, "id = ?", "T1").Error)
	assert.Equal(t, "Annex", row.Venue)
	assert.Equal(t, "T1", row.TransactionID)
}

func TestListRegistrations_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRegistrations(ctx, sampleRegs()))

	got, err := s.ListRegistrations(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by storage id: T1 before T2_comp_1.
	assert.Equal(t, "T1", got[0].ID)
	assert.Equal(t, "Disha Daga", got[0].Identity.DisplayName)
	assert.Equal(t, domain.FormVersionLegacy, got[0].FormVersion)
	require.Len(t, got[0].Invitees, 5)
	assert.Equal(t, "Amit Shah", got[0].Invitees[0].Name)

	assert.Equal(t, "T2_comp_1", got[1].ID)
	assert.Equal(t, "T2", got[1].TransactionID)
	assert.True(t, got[1].Ticket.Complimentary)
}

func TestSaveRegistrations_Empty(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.SaveRegistrations(context.Background(), nil))
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LatestSnapshot(ctx)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	first := &domain.StatsSnapshot{
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Overview:    domain.Overview{Total: 10, Members: 6, MemberPct: 60},
	}
	require.NoError(t, s.SaveSnapshot(ctx, first))

	got, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Overview, got.Overview)

	// Saving again replaces the single row.
	second := &domain.StatsSnapshot{
		GeneratedAt: time.Now().UTC(),
		Overview:    domain.Overview{Total: 20},
	}
	require.NoError(t, s.SaveSnapshot(ctx, second))

	got, err = s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Overview.Total)

	var count int64
	require.NoError(t, s.db.Model(&SnapshotRow{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "snapshot is replace-on-write, never history")
}

func TestRunReportRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LatestRunReport(ctx)
	assert.True(t, IsNotFound(err))

	older := &domain.RunReport{
		RunID:      "run-1",
		FinishedAt: time.Now().UTC().Add(-time.Hour),
		RowsTotal:  100,
	}
	newer := &domain.RunReport{
		RunID:      "run-2",
		FinishedAt: time.Now().UTC(),
		RowsTotal:  120,
	}
	require.NoError(t, s.SaveRunReport(ctx, older))
	require.NoError(t, s.SaveRunReport(ctx, newer))

	got, err := s.LatestRunReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.RunID)
	assert.Equal(t, 120, got.RowsTotal)
}
