package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/shared/testutil"
	"regpulse/pkg/contracts/domain"
)

func newTestAggregator(t *testing.T) *Aggregator {
	logger, _ := testutil.Logger(t)
	cutoff, err := time.Parse("2006-01-02", "2025-10-09")
	require.NoError(t, err)
	return NewAggregator(logger, cutoff)
}

func regWithDate(id, date string, qty int) domain.Registration {
	return domain.Registration{
		ID:            id,
		TransactionID: id,
		Ticket:        domain.TicketMeta{Quantity: qty},
		Transaction:   domain.TransactionMeta{Date: date},
	}
}

func TestBuildSnapshot_Overview(t *testing.T) {
	a := newTestAggregator(t)

	regs := []domain.Registration{
		{ID: "R1", TransactionID: "R1"},
		{ID: "R2", TransactionID: "R2"},
		{ID: "R3", TransactionID: "R3"},
	}
	links := []domain.MatchLink{
		{RegistrationID: "R1", Group: "North"},
		{RegistrationID: "R2", Group: "North"},
	}

	s := a.BuildSnapshot(context.Background(), regs, links, nil, nil)

	assert.Equal(t, 3, s.Overview.Total)
	assert.Equal(t, 2, s.Overview.Members)
	assert.Equal(t, 1, s.Overview.NonMembers)
	assert.Equal(t, 66.67, s.Overview.MemberPct)
	assert.Equal(t, 33.33, s.Overview.NonMemberPct)
	assert.False(t, s.GeneratedAt.IsZero())
}

func TestBuildSnapshot_EmptyInputs(t *testing.T) {
	a := newTestAggregator(t)

	s := a.BuildSnapshot(context.Background(), nil, nil, nil, nil)

	assert.Zero(t, s.Overview.Total)
	assert.Zero(t, s.Overview.MemberPct, "zero totals never divide")
	assert.Empty(t, s.GroupBreakdown)
	assert.Empty(t, s.DailyTrend)
}

func TestGroupBreakdown(t *testing.T) {
	a := newTestAggregator(t)

	links := []domain.MatchLink{
		{RegistrationID: "R1", Group: "North"},
		{RegistrationID: "R2", Group: "North"},
		{RegistrationID: "R3", Group: "South"},
		{RegistrationID: "R4", Group: "North"},
		{RegistrationID: "R5", Group: ""}, // no group recorded
	}

	breakdown := a.groupBreakdown(links)

	require.Len(t, breakdown, 2)
	assert.Equal(t, domain.GroupCount{Group: "North", Count: 3, Pct: 75}, breakdown[0])
	assert.Equal(t, domain.GroupCount{Group: "South", Count: 1, Pct: 25}, breakdown[1])
}

func TestFirstTimerBreakdown(t *testing.T) {
	a := newTestAggregator(t)

	regs := []domain.Registration{
		{ID: "R1", Age: 45}, // first-timer, 40+
		{ID: "R2", Age: 28}, // first-timer, under 40
		{ID: "R3", Age: 0},  // first-timer, unknown age
		{ID: "R4", Age: 52}, // returning
	}
	returning := map[string]bool{"R4": true}

	b := a.firstTimerBreakdown(regs, returning)

	assert.Equal(t, 3, b.FirstTimers)
	assert.Equal(t, 1, b.Returning)
	assert.Equal(t, 1, b.Age40Plus)
	assert.Equal(t, 1, b.AgeUnder40)
	assert.Equal(t, 1, b.AgeUnknown)
	assert.Equal(t, 75.0, b.FirstTimerPct)
	assert.Equal(t, 25.0, b.ReturningPct)
}

func TestGroupRates_OverFullRoster(t *testing.T) {
	a := newTestAggregator(t)

	members := []domain.GroupMember{
		{FullName: "A", Group: "North"},
		{FullName: "B", Group: "North"},
		{FullName: "C", Group: "North"},
		{FullName: "D", Group: "North"},
		{FullName: "E", Group: "South"},
	}
	links := []domain.MatchLink{
		{RegistrationID: "R1", Group: "North"},
	}

	rates := a.groupRates(links, members)

	require.Len(t, rates, 2)
	assert.Equal(t, domain.GroupRate{Group: "North", Registered: 1, RosterSize: 4, Rate: 25}, rates[0])
	assert.Equal(t, domain.GroupRate{Group: "South", Registered: 0, RosterSize: 1, Rate: 0}, rates[1],
		"groups with no registrations still appear")
}

func TestDailyTrend(t *testing.T) {
	a := newTestAggregator(t)

	regs := []domain.Registration{
		regWithDate("R1", "05-10-2025 18:30:00", 1),
		regWithDate("R2", "05-10-2025 09:15:00", 2),
		regWithDate("R3", "04-10-2025 12:00:00", 1),
		regWithDate("R4", "not a date", 1),
		regWithDate("R5", "", 1),
	}

	trend := a.dailyTrend(regs)

	require.Len(t, trend, 2, "unparsable dates are excluded from the trend")
	assert.Equal(t, domain.DailyCount{Date: "2025-10-04", Tickets: 1}, trend[0])
	assert.Equal(t, domain.DailyCount{Date: "2025-10-05", Tickets: 3}, trend[1])
}

func TestReferralHistogram(t *testing.T) {
	a := newTestAggregator(t)

	twoInvitees := []domain.Invitee{
		{Name: "X"}, {}, {Phone: "9000000001"}, {}, {},
	}

	regs := []domain.Registration{
		// Legacy, day before cutoff, two slots filled: bucket 2.
		{ID: "R1", FormVersion: domain.FormVersionLegacy, Invitees: twoInvitees,
			Transaction: domain.TransactionMeta{Date: "08-10-2025 10:00:00"}},
		// Legacy, no invitees, before cutoff: bucket 0.
		{ID: "R2", FormVersion: domain.FormVersionLegacy,
			Transaction: domain.TransactionMeta{Date: "01-10-2025 10:00:00"}},
		// Legacy but at the cutoff date: excluded, not bucket 0.
		{ID: "R3", FormVersion: domain.FormVersionLegacy, Invitees: twoInvitees,
			Transaction: domain.TransactionMeta{Date: "09-10-2025 00:00:00"}},
		// Current form: always excluded.
		{ID: "R4", FormVersion: domain.FormVersionCurrent,
			Transaction: domain.TransactionMeta{Date: "01-10-2025 10:00:00"}},
		// Legacy with unparsable date: excluded.
		{ID: "R5", FormVersion: domain.FormVersionLegacy,
			Transaction: domain.TransactionMeta{Date: "sometime"}},
	}

	h := a.referralHistogram(regs)

	assert.Equal(t, [6]int{1, 0, 1, 0, 0, 0}, h)
}

func TestPct_Rounding(t *testing.T) {
	assert.Equal(t, 33.33, pct(1, 3))
	assert.Equal(t, 66.67, pct(2, 3))
	assert.Equal(t, 0.0, pct(0, 0))
	assert.Equal(t, 100.0, pct(7, 7))
}
