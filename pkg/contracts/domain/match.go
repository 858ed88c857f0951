package domain

// MatchBasis records which signal finally confirmed a member/registration
// pairing, so heuristic acceptances stay auditable.
type MatchBasis string

const (
	// MatchBasisScored means the candidate was selected by name plus a
	// positive phone/email score.
	MatchBasisScored MatchBasis = "scored"
	// MatchBasisNameOnly means a single name candidate was accepted with
	// no confirming phone or email signal.
	MatchBasisNameOnly MatchBasis = "name_only"
	// MatchBasisPhone means the phone10 fallback produced the pairing.
	MatchBasisPhone MatchBasis = "phone"
	// MatchBasisEmail means the email fallback produced the pairing.
	MatchBasisEmail MatchBasis = "email"
)

// MatchLink pairs one canonical registration with exactly one group
// member. A member appears in at most one link and so does a registration;
// the claim is irreversible within a run.
type MatchLink struct {
	RegistrationID string     `json:"registration_id"`
	MemberIndex    int        `json:"member_index"` // position in roster order
	Group          string     `json:"group"`
	Score          int        `json:"score"`
	Basis          MatchBasis `json:"basis"`
}
