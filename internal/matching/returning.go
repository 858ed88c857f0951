package matching

import (
	"regpulse/pkg/contracts/domain"
)

// HistoricalIndex is a phone-keyed lookup over the historical-attendance
// roster, built once per run.
type HistoricalIndex struct {
	byPhone     map[string]*domain.HistoricalParticipant
	countryCode string
}

// NewHistoricalIndex builds the phone lookup. Entries without a usable
// phone key are skipped; they can never be matched anyway.
func NewHistoricalIndex(participants []domain.HistoricalParticipant, countryCode string) *HistoricalIndex {
	idx := &HistoricalIndex{
		byPhone:     make(map[string]*domain.HistoricalParticipant, len(participants)),
		countryCode: countryCode,
	}
	for i := range participants {
		key := NormalizePhone10(participants[i].Phone, countryCode)
		if key == "" {
			continue
		}
		if _, exists := idx.byPhone[key]; !exists {
			idx.byPhone[key] = &participants[i]
		}
	}
	return idx
}

// IsReturning reports whether a registration's phone key appears in the
// historical roster. The check never consumes entries: many registrations
// may map to one historical phone.
func (idx *HistoricalIndex) IsReturning(reg *domain.Registration) bool {
	key := NormalizePhone10(reg.Contact.Phone, idx.countryCode)
	if key == "" {
		return false
	}
	_, ok := idx.byPhone[key]
	return ok
}

// ReturningFlags computes the returning flag for every registration,
// keyed by storage id.
func (idx *HistoricalIndex) ReturningFlags(regs []domain.Registration) map[string]bool {
	flags := make(map[string]bool, len(regs))
	for i := range regs {
		flags[regs[i].ID] = idx.IsReturning(&regs[i])
	}
	return flags
}
