package dataprocessing

import (
	"regpulse/pkg/contracts/domain"
)

// Backfill propagates transaction-level fields across rows of one group
// purchase. Within each transaction group of size > 1 the primary record
// is the first whose transaction date, venue, event name, show date and
// ticket quantity are all populated (falling back to the first record in
// the group); its transaction fields are copied into any sibling fields
// that are still empty. Per-person fields are never touched.
//
// Running Backfill on an already-backfilled set changes nothing.
func Backfill(regs []domain.Registration) int {
	groups := make(map[string][]int)
	order := make([]string, 0)
	for i, reg := range regs {
		if _, seen := groups[reg.TransactionID]; !seen {
			order = append(order, reg.TransactionID)
		}
		groups[reg.TransactionID] = append(groups[reg.TransactionID], i)
	}

	filled := 0
	for _, txn := range order {
		idxs := groups[txn]
		if len(idxs) < 2 {
			continue
		}

		primary := idxs[0]
		for _, i := range idxs {
			if isComplete(&regs[i]) {
				primary = i
				break
			}
		}

		src := regs[primary].Transaction
		for _, i := range idxs {
			if i == primary {
				continue
			}
			if fillTransaction(&regs[i].Transaction, src) {
				filled++
			}
		}
	}

	return filled
}

// isComplete reports whether a record carries every transaction-level
// field needed to serve as the group's primary.
func isComplete(r *domain.Registration) bool {
	t := r.Transaction
	return t.Date != "" && t.Venue != "" && t.EventName != "" && t.ShowDate != "" &&
		r.Ticket.Quantity > 0
}

// fillTransaction copies populated source fields into empty destination
// fields, reporting whether anything changed.
func fillTransaction(dst *domain.TransactionMeta, src domain.TransactionMeta) bool {
	changed := false
	if dst.Date == "" && src.Date != "" {
		dst.Date = src.Date
		changed = true
	}
	if dst.Venue == "" && src.Venue != "" {
		dst.Venue = src.Venue
		changed = true
	}
	if dst.Session == "" && src.Session != "" {
		dst.Session = src.Session
		changed = true
	}
	if dst.EventName == "" && src.EventName != "" {
		dst.EventName = src.EventName
		changed = true
	}
	if dst.ShowDate == "" && src.ShowDate != "" {
		dst.ShowDate = src.ShowDate
		changed = true
	}
	return changed
}
