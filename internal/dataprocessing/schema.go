package dataprocessing

import (
	"strings"

	"regpulse/internal/errors"
	"regpulse/pkg/contracts/domain"
)

// columnSchema is the explicit field-to-index mapping for one form layout.
// Raw index access happens only through this table so layout drift fails
// at the mapping boundary instead of silently misreading columns.
type columnSchema struct {
	BackgroundFlag  int
	BookingID       int
	TransactionID   int
	BookingCommit   int
	TransactionDate int
	Venue           int
	EventName       int
	ShowDate        int
	PerTicketQty    int
	SeatInfo        int
	TicketQty       int
	TicketAmount    int

	FirstName int
	LastName  int
	Age       int
	Gender    int
	Phone     int
	Email     int
	Pincode   int

	// InviteeBase is the name column of the first referral triple; the
	// five triples occupy InviteeBase through InviteeBase+14.
	InviteeBase int
	TermsFlag   int

	// Columns past the legacy boundary. -1 when the layout lacks them.
	FullName     int
	CompFullName int
	CompMobile   int
	CompEmail    int
	Remarks      int
	AltAge       int

	MinCells int
}

// legacySchema maps the 45-column layout used before the form change:
// discrete first/last name columns and five referral invitee triples.
var legacySchema = columnSchema{
	BackgroundFlag:  0,
	BookingID:       1,
	TransactionID:   2,
	BookingCommit:   3,
	TransactionDate: 4,
	Venue:           5,
	EventName:       6,
	ShowDate:        7,
	PerTicketQty:    8,
	SeatInfo:        9,
	TicketQty:       10,
	TicketAmount:    11,
	FirstName:       20,
	LastName:        21,
	Age:             22,
	Gender:          23,
	Phone:           24,
	Email:           25,
	Pincode:         26,
	InviteeBase:     29,
	TermsFlag:       44,
	FullName:        -1,
	CompFullName:    -1,
	CompMobile:      -1,
	CompEmail:       -1,
	Remarks:         -1,
	AltAge:          -1,
	MinCells:        45,
}

// currentSchema maps the widened layout introduced mid-campaign: a single
// full-name column at 45 and the complimentary holder fields past it.
var currentSchema = func() columnSchema {
	s := legacySchema
	s.FullName = 45
	s.CompFullName = 49
	s.CompMobile = 50
	s.CompEmail = 51
	s.Remarks = 52
	s.AltAge = 53
	s.MinCells = 46
	return s
}()

// numInvitees is the number of referral slots on the legacy form.
const numInvitees = 5

// cell safely reads one mapped column, returning "" for columns the
// layout lacks or the row is too short for.
func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

// detectSchema picks the column mapping for a raw row. Rows shorter than
// the legacy minimum cannot be mapped at all and are rejected here, never
// guessed at.
func detectSchema(cells []string) (*columnSchema, error) {
	if len(cells) < legacySchema.MinCells {
		return nil, errors.ErrUnknownSchema
	}
	if len(cells) >= currentSchema.MinCells {
		return &currentSchema, nil
	}
	return &legacySchema, nil
}

// inferVersion applies the form-version rule: LEGACY when referral fields
// are populated or discrete name columns were used, CURRENT otherwise.
func inferVersion(usedDiscreteNames bool, invitees []domain.Invitee) domain.FormVersion {
	if usedDiscreteNames {
		return domain.FormVersionLegacy
	}
	for _, inv := range invitees {
		if !inv.IsEmpty() {
			return domain.FormVersionLegacy
		}
	}
	return domain.FormVersionCurrent
}
