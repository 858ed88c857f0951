package domain

// FormVersion identifies which of the two registration form layouts a raw
// row was produced by. The layouts are distinguished only by which fields
// are populated, never by an explicit version flag in the export.
type FormVersion string

const (
	// FormVersionLegacy populates discrete first/last name columns and up
	// to five referral invitee triples.
	FormVersionLegacy FormVersion = "legacy"
	// FormVersionCurrent populates a single full-name column and carries
	// no referral data.
	FormVersionCurrent FormVersion = "current"
	// FormVersionUnknown marks a row that could not be mapped to either
	// layout. Rows with this version are rejected at the mapping boundary.
	FormVersionUnknown FormVersion = "unknown"
)

// Identity holds the resolved name fields of a registration.
// DisplayName is never empty: when no name data exists anywhere on the row
// a synthetic guest label derived from the transaction id is used instead.
type Identity struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name" validate:"required"`
}

// Contact holds raw contact strings as they appeared on the form.
// These are NOT normalized; matching keys are derived from them later.
type Contact struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// TicketMeta holds per-ticket pricing and seating information.
type TicketMeta struct {
	Amount        float64 `json:"amount"`
	Complimentary bool    `json:"complimentary"`
	SeatInfo      string  `json:"seat_info"`
	Quantity      int     `json:"quantity"`
}

// Invitee is one referral slot from the legacy form. Up to five slots
// exist per registration; empty slots are kept so slot position is stable.
type Invitee struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// IsEmpty reports whether no field of the invitee slot was filled in.
func (i Invitee) IsEmpty() bool {
	return i.Name == "" && i.Phone == "" && i.Email == ""
}

// TransactionMeta holds transaction-level fields shared by co-purchased
// tickets. These may be absent on sibling rows of a group purchase until
// backfilled from the group's primary row.
type TransactionMeta struct {
	Date      string `json:"date"` // DD-MM-YYYY HH:MM:SS as exported
	Venue     string `json:"venue"`
	Session   string `json:"session"`
	EventName string `json:"event_name"`
	ShowDate  string `json:"show_date"`
}

// Registration is the canonical per-attendee record: one real attendee
// holding one ticket.
//
// Lifecycle: created by the schema normalizer, mutated only by the ticket
// expander (cardinality) and the transaction backfill (fills empty
// transaction fields), immutable thereafter.
type Registration struct {
	// ID is the derived storage key: the transaction id, or the
	// transaction id plus an ordinal suffix for expanded complimentary
	// entries. Unique across the canonical set.
	ID string `json:"id" validate:"required"`
	// TransactionID is shared by co-purchased tickets and is not unique
	// after expansion.
	TransactionID string          `json:"transaction_id" validate:"required"`
	Identity      Identity        `json:"identity"`
	Contact       Contact         `json:"contact"`
	Age           int             `json:"age,omitempty"`
	FormVersion   FormVersion     `json:"form_version"`
	Ticket        TicketMeta      `json:"ticket"`
	Invitees      []Invitee       `json:"invitees,omitempty"` // legacy form only, up to 5
	Transaction   TransactionMeta `json:"transaction"`
}

// InviteeCount returns how many referral slots have any non-empty field.
func (r *Registration) InviteeCount() int {
	n := 0
	for _, inv := range r.Invitees {
		if !inv.IsEmpty() {
			n++
		}
	}
	return n
}
