// Package analytics computes the statistics snapshot from the normalized
// and matched dataset. The aggregator is a pure function of its inputs:
// re-running it over the same data yields an identical snapshot.
package analytics

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"regpulse/internal/config"
	"regpulse/pkg/contracts/domain"
)

// Aggregator computes StatsSnapshot documents.
type Aggregator struct {
	logger *slog.Logger
	// referralCutoff excludes registrations at or after this date from
	// the referral histogram. Late-phase and current-form records carry
	// no meaningful referral data; including them would pile every such
	// record into the zero bucket and distort the distribution.
	referralCutoff time.Time
}

// NewAggregator creates an Aggregator with the given phase cutoff. A zero
// cutoff falls back to the campaign default.
func NewAggregator(logger *slog.Logger, referralCutoff time.Time) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if referralCutoff.IsZero() {
		referralCutoff, _ = time.Parse("2006-01-02", config.DefaultReferralCutoff)
	}
	return &Aggregator{logger: logger, referralCutoff: referralCutoff}
}

// BuildSnapshot computes the analytics document for one run. The previous
// snapshot is fully replaced by the caller; nothing here is incremental.
func (a *Aggregator) BuildSnapshot(
	ctx context.Context,
	regs []domain.Registration,
	links []domain.MatchLink,
	returning map[string]bool,
	members []domain.GroupMember,
) *domain.StatsSnapshot {
	snapshot := &domain.StatsSnapshot{GeneratedAt: time.Now().UTC()}

	total := len(regs)
	matched := len(links)

	snapshot.Overview = domain.Overview{
		Total:        total,
		Members:      matched,
		NonMembers:   total - matched,
		MemberPct:    pct(matched, total),
		NonMemberPct: pct(total-matched, total),
	}

	snapshot.GroupBreakdown = a.groupBreakdown(links)
	snapshot.FirstTimers = a.firstTimerBreakdown(regs, returning)
	snapshot.GroupRates = a.groupRates(links, members)
	snapshot.DailyTrend = a.dailyTrend(regs)
	snapshot.ReferralHistogram = a.referralHistogram(regs)

	a.logger.InfoContext(ctx, "snapshot computed",
		slog.Int("total", total),
		slog.Int("members", matched),
		slog.Int("first_timers", snapshot.FirstTimers.FirstTimers),
		slog.Int("trend_days", len(snapshot.DailyTrend)))

	return snapshot
}

// groupBreakdown counts matched registrations per group, restricted to
// group-membership-bearing links.
func (a *Aggregator) groupBreakdown(links []domain.MatchLink) []domain.GroupCount {
	counts := make(map[string]int)
	total := 0
	for _, link := range links {
		if link.Group == "" {
			continue
		}
		counts[link.Group]++
		total++
	}

	breakdown := make([]domain.GroupCount, 0, len(counts))
	for group, count := range counts {
		breakdown = append(breakdown, domain.GroupCount{
			Group: group,
			Count: count,
			Pct:   pct(count, total),
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Group < breakdown[j].Group
	})
	return breakdown
}

// firstTimerBreakdown splits the canonical set by the returning flag and
// buckets first-timers by age. Unknown means age absent or non-positive.
func (a *Aggregator) firstTimerBreakdown(regs []domain.Registration, returning map[string]bool) domain.FirstTimerBreakdown {
	var b domain.FirstTimerBreakdown
	for i := range regs {
		if returning[regs[i].ID] {
			b.Returning++
			continue
		}
		b.FirstTimers++
		switch {
		case regs[i].Age >= 40:
			b.Age40Plus++
		case regs[i].Age > 0:
			b.AgeUnder40++
		default:
			b.AgeUnknown++
		}
	}
	total := b.FirstTimers + b.Returning
	b.FirstTimerPct = pct(b.FirstTimers, total)
	b.ReturningPct = pct(b.Returning, total)
	return b
}

// groupRates computes the registration rate of each roster group over the
// full roster, regardless of matching outcome.
func (a *Aggregator) groupRates(links []domain.MatchLink, members []domain.GroupMember) []domain.GroupRate {
	rosterSize := make(map[string]int)
	for _, m := range members {
		rosterSize[m.Group]++
	}
	registered := make(map[string]int)
	for _, link := range links {
		registered[link.Group]++
	}

	rates := make([]domain.GroupRate, 0, len(rosterSize))
	for group, size := range rosterSize {
		rates = append(rates, domain.GroupRate{
			Group:      group,
			Registered: registered[group],
			RosterSize: size,
			Rate:       pct(registered[group], size),
		})
	}
	sort.Slice(rates, func(i, j int) bool {
		return rates[i].Group < rates[j].Group
	})
	return rates
}

// dailyTrend groups registrations by the calendar date of their
// transaction, summing ticket quantity. Records with unparsable dates
// stay in the overview total but are excluded from the trend.
func (a *Aggregator) dailyTrend(regs []domain.Registration) []domain.DailyCount {
	perDay := make(map[string]int)
	for i := range regs {
		t, err := time.Parse(config.TransactionDateLayout, regs[i].Transaction.Date)
		if err != nil {
			continue
		}
		perDay[t.Format("2006-01-02")] += regs[i].Ticket.Quantity
	}

	trend := make([]domain.DailyCount, 0, len(perDay))
	for date, tickets := range perDay {
		trend = append(trend, domain.DailyCount{Date: date, Tickets: tickets})
	}
	sort.Slice(trend, func(i, j int) bool {
		return trend[i].Date < trend[j].Date
	})
	return trend
}

// referralHistogram buckets legacy-form registrations made strictly
// before the phase cutoff by how many invitee slots they filled. Records
// at or after the cutoff, from the current form, or with unparsable dates
// are excluded entirely.
func (a *Aggregator) referralHistogram(regs []domain.Registration) [6]int {
	var histogram [6]int
	for i := range regs {
		if regs[i].FormVersion != domain.FormVersionLegacy {
			continue
		}
		t, err := time.Parse(config.TransactionDateLayout, regs[i].Transaction.Date)
		if err != nil || !t.Before(a.referralCutoff) {
			continue
		}
		count := regs[i].InviteeCount()
		if count > 5 {
			count = 5
		}
		histogram[count]++
	}
	return histogram
}

// pct returns n over total as a percentage rounded to two decimals.
func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*10000) / 100
}
