package domain

import "time"

// Overview holds headline counts and percentages over the canonical set.
type Overview struct {
	Total         int     `json:"total"`
	Members       int     `json:"members"`
	NonMembers    int     `json:"non_members"`
	MemberPct     float64 `json:"member_pct"`
	NonMemberPct  float64 `json:"non_member_pct"`
}

// GroupCount is one slice of the group-membership breakdown, restricted
// to matched, group-bearing registrations.
type GroupCount struct {
	Group string  `json:"group"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

// FirstTimerBreakdown splits the canonical set into first-timers and
// returning attendees, with first-timers bucketed by age.
type FirstTimerBreakdown struct {
	FirstTimers   int     `json:"first_timers"`
	Returning     int     `json:"returning"`
	FirstTimerPct float64 `json:"first_timer_pct"`
	ReturningPct  float64 `json:"returning_pct"`
	Age40Plus     int     `json:"age_40_plus"`
	AgeUnder40    int     `json:"age_under_40"`
	AgeUnknown    int     `json:"age_unknown"`
}

// GroupRate is the registration rate of one roster group: how many of its
// members were matched to a registration, over the full roster size.
type GroupRate struct {
	Group      string  `json:"group"`
	Registered int     `json:"registered"`
	RosterSize int     `json:"roster_size"`
	Rate       float64 `json:"rate"`
}

// DailyCount is one point of the daily registration trend: total ticket
// quantity registered on one calendar date.
type DailyCount struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Tickets int    `json:"tickets"`
}

// StatsSnapshot is the single computed analytics document for one run.
// It fully replaces the previous snapshot; no history is retained.
type StatsSnapshot struct {
	GeneratedAt       time.Time           `json:"generated_at"`
	Overview          Overview            `json:"overview"`
	GroupBreakdown    []GroupCount        `json:"group_breakdown"`
	FirstTimers       FirstTimerBreakdown `json:"first_timers"`
	GroupRates        []GroupRate         `json:"group_rates"`
	DailyTrend        []DailyCount        `json:"daily_trend"`
	ReferralHistogram [6]int              `json:"referral_histogram"` // buckets 0..5 invitees
}
