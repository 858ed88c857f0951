package exporter

import (
	"fmt"
	"strconv"

	"regpulse/pkg/contracts/domain"
)

var registrationHeaders = []string{
	"id", "transaction_id", "first_name", "last_name", "display_name",
	"phone", "email", "age", "form_version",
	"amount", "complimentary", "seat_info", "quantity",
	"txn_date", "venue", "session", "event_name", "show_date",
	"invitees",
}

// ExportRegistrations writes the canonical registration set.
func (w *CSVWriter) ExportRegistrations(name string, regs []domain.Registration) error {
	records := make([][]string, 0, len(regs))
	for i := range regs {
		r := &regs[i]
		records = append(records, []string{
			r.ID,
			r.TransactionID,
			r.Identity.FirstName,
			r.Identity.LastName,
			r.Identity.DisplayName,
			r.Contact.Phone,
			r.Contact.Email,
			strconv.Itoa(r.Age),
			string(r.FormVersion),
			strconv.FormatFloat(r.Ticket.Amount, 'f', 2, 64),
			strconv.FormatBool(r.Ticket.Complimentary),
			r.Ticket.SeatInfo,
			strconv.Itoa(r.Ticket.Quantity),
			r.Transaction.Date,
			r.Transaction.Venue,
			r.Transaction.Session,
			r.Transaction.EventName,
			r.Transaction.ShowDate,
			strconv.Itoa(r.InviteeCount()),
		})
	}
	return w.Write(name, WriteOptions{
		Headers:   registrationHeaders,
		Records:   records,
		BOMPrefix: true,
	})
}

// ExportSnapshot writes the statistics document as a flat metric/value
// table, one section per aggregate.
func (w *CSVWriter) ExportSnapshot(name string, s *domain.StatsSnapshot) error {
	records := [][]string{
		{"overview", "total", strconv.Itoa(s.Overview.Total), ""},
		{"overview", "members", strconv.Itoa(s.Overview.Members), pctStr(s.Overview.MemberPct)},
		{"overview", "non_members", strconv.Itoa(s.Overview.NonMembers), pctStr(s.Overview.NonMemberPct)},
		{"first_timers", "first_timers", strconv.Itoa(s.FirstTimers.FirstTimers), pctStr(s.FirstTimers.FirstTimerPct)},
		{"first_timers", "returning", strconv.Itoa(s.FirstTimers.Returning), pctStr(s.FirstTimers.ReturningPct)},
		{"first_timers", "age_40_plus", strconv.Itoa(s.FirstTimers.Age40Plus), ""},
		{"first_timers", "age_under_40", strconv.Itoa(s.FirstTimers.AgeUnder40), ""},
		{"first_timers", "age_unknown", strconv.Itoa(s.FirstTimers.AgeUnknown), ""},
	}

	for _, g := range s.GroupBreakdown {
		records = append(records, []string{"group_breakdown", g.Group, strconv.Itoa(g.Count), pctStr(g.Pct)})
	}
	for _, r := range s.GroupRates {
		records = append(records, []string{
			"group_rate", r.Group,
			fmt.Sprintf("%d/%d", r.Registered, r.RosterSize),
			pctStr(r.Rate),
		})
	}
	for _, d := range s.DailyTrend {
		records = append(records, []string{"daily_trend", d.Date, strconv.Itoa(d.Tickets), ""})
	}
	for i, count := range s.ReferralHistogram {
		records = append(records, []string{"referral_histogram", strconv.Itoa(i), strconv.Itoa(count), ""})
	}

	return w.Write(name, WriteOptions{
		Headers:   []string{"section", "key", "value", "pct"},
		Records:   records,
		BOMPrefix: true,
	})
}

func pctStr(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}
