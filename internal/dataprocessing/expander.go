package dataprocessing

import (
	"fmt"

	"regpulse/internal/config"
	"regpulse/pkg/contracts/domain"
)

// Expand splits every complimentary registration with quantity > 1 into
// one record per physical ticket-holder. The copies share all transaction
// metadata but carry distinct storage keys (<txn>_comp_<ordinal>) and
// quantity 1. Non-complimentary records and single tickets pass through
// unchanged with their original key.
//
// The upstream report emits one row per transaction even when several
// attendees were comped together; without this step headcount undercounts
// actual attendees.
func Expand(regs []domain.Registration) ([]domain.Registration, int) {
	out := make([]domain.Registration, 0, len(regs))
	expanded := 0

	for _, reg := range regs {
		if !reg.Ticket.Complimentary || reg.Ticket.Quantity <= 1 {
			out = append(out, reg)
			continue
		}

		for i := 1; i <= reg.Ticket.Quantity; i++ {
			dup := reg
			dup.ID = fmt.Sprintf(config.CompSuffixFormat, reg.TransactionID, i)
			dup.Ticket.Quantity = 1
			out = append(out, dup)
		}
		expanded += reg.Ticket.Quantity - 1
	}

	return out, expanded
}
