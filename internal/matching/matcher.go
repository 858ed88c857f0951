package matching

import (
	"context"
	"log/slog"

	"regpulse/pkg/contracts/domain"
)

// Scoring weights for candidate selection. Phone agreement outweighs
// email agreement.
const (
	scorePhone = 3
	scoreEmail = 2
)

// ClaimState tracks which registrations and members have already been
// paired. It is explicit rather than closure-captured so the first-claim-
// wins order dependence of the algorithm stays visible and testable.
type ClaimState struct {
	regs    []bool
	members []bool
}

// NewClaimState creates claim tracking for the given set sizes.
func NewClaimState(numRegs, numMembers int) *ClaimState {
	return &ClaimState{
		regs:    make([]bool, numRegs),
		members: make([]bool, numMembers),
	}
}

// RegClaimed reports whether registration index i has been claimed.
func (c *ClaimState) RegClaimed(i int) bool { return c.regs[i] }

// MemberClaimed reports whether member index i has been claimed.
func (c *ClaimState) MemberClaimed(i int) bool { return c.members[i] }

// claim irreversibly pairs a member with a registration.
func (c *ClaimState) claim(regIdx, memberIdx int) {
	c.regs[regIdx] = true
	c.members[memberIdx] = true
}

// regKeys holds the precomputed comparison keys of one registration.
type regKeys struct {
	name    string
	phone10 string
	email   string
}

// Result carries the match links of one run plus the counters that make
// the heuristic decisions auditable.
type Result struct {
	Links []domain.MatchLink
	// NameOnlyAccepted counts pairings accepted on a single name
	// candidate with no confirming phone/email signal.
	NameOnlyAccepted int
	// AmbiguousRejected counts members whose name candidates collided
	// without a confirming signal; those members fell through to the
	// phone/email fallbacks instead of being guessed.
	AmbiguousRejected int
	UnmatchedMembers  int
	Claims            *ClaimState
}

// Matcher links registrations to group members.
type Matcher struct {
	logger      *slog.Logger
	countryCode string
}

// NewMatcher creates a Matcher. countryCode is the phone prefix stripped
// when deriving phone comparison keys.
func NewMatcher(logger *slog.Logger, countryCode string) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{logger: logger, countryCode: countryCode}
}

// Match processes members in roster order and produces at most one link
// per member and per registration. Given a fixed roster order and a fixed
// registration set the result is deterministic.
func (m *Matcher) Match(ctx context.Context, regs []domain.Registration, members []domain.GroupMember) Result {
	keys := make([]regKeys, len(regs))
	for i, reg := range regs {
		keys[i] = regKeys{
			name:    NormalizeName(reg.Identity.DisplayName),
			phone10: NormalizePhone10(reg.Contact.Phone, m.countryCode),
			email:   NormalizeEmail(reg.Contact.Email),
		}
	}

	claims := NewClaimState(len(regs), len(members))
	result := Result{Claims: claims}

	for mi, member := range members {
		regIdx, link, ok := m.matchMember(mi, member, regs, keys, claims, &result)
		if !ok {
			result.UnmatchedMembers++
			continue
		}
		claims.claim(regIdx, mi)
		result.Links = append(result.Links, link)
	}

	m.logger.InfoContext(ctx, "member matching complete",
		slog.Int("members", len(members)),
		slog.Int("matched", len(result.Links)),
		slog.Int("unmatched", result.UnmatchedMembers),
		slog.Int("name_only_accepted", result.NameOnlyAccepted),
		slog.Int("ambiguous_rejected", result.AmbiguousRejected))

	return result
}

// matchMember runs the per-member matching sequence: scored name
// candidates, then the phone fallback, then the email fallback. The
// returned index identifies the matched registration by position, not by
// ID: group-purchase siblings share a transaction id until expansion
// renames the complimentary copies, so IDs alone are not a claim key.
func (m *Matcher) matchMember(mi int, member domain.GroupMember, regs []domain.Registration, keys []regKeys, claims *ClaimState, result *Result) (int, domain.MatchLink, bool) {
	memberName := NormalizeName(member.FullName)
	memberPhone := NormalizePhone10(member.MobileNumber, m.countryCode)
	if memberPhone == "" {
		memberPhone = NormalizePhone10(member.AlternateMobileNumber, m.countryCode)
	}
	memberEmail := NormalizeEmail(member.Email)

	// Step 1: candidates sharing the normalized name, scored by
	// confirming signals.
	var candidates []int
	if memberName != "" {
		for i := range regs {
			if !claims.RegClaimed(i) && keys[i].name == memberName {
				candidates = append(candidates, i)
			}
		}
	}

	if len(candidates) > 0 {
		best, bestScore := candidates[0], -1
		for _, i := range candidates {
			score := 0
			if memberPhone != "" && keys[i].phone10 == memberPhone {
				score += scorePhone
			}
			if memberEmail != "" && keys[i].email == memberEmail {
				score += scoreEmail
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}

		switch {
		case bestScore > 0:
			return best, domain.MatchLink{
				RegistrationID: regs[best].ID,
				MemberIndex:    mi,
				Group:          member.Group,
				Score:          bestScore,
				Basis:          domain.MatchBasisScored,
			}, true
		case len(candidates) == 1:
			// Unambiguous name-only match is accepted; counted so the
			// acceptance is auditable.
			result.NameOnlyAccepted++
			return best, domain.MatchLink{
				RegistrationID: regs[best].ID,
				MemberIndex:    mi,
				Group:          member.Group,
				Score:          0,
				Basis:          domain.MatchBasisNameOnly,
			}, true
		default:
			// Name collision without a confirming signal: refuse to
			// guess, fall through to the contact fallbacks.
			result.AmbiguousRejected++
		}
	}

	// Step 2: phone fallback over all unclaimed registrations.
	if memberPhone != "" {
		for i := range regs {
			if !claims.RegClaimed(i) && keys[i].phone10 == memberPhone {
				return i, domain.MatchLink{
					RegistrationID: regs[i].ID,
					MemberIndex:    mi,
					Group:          member.Group,
					Score:          scorePhone,
					Basis:          domain.MatchBasisPhone,
				}, true
			}
		}
	}

	// Step 3: email fallback.
	if memberEmail != "" {
		for i := range regs {
			if !claims.RegClaimed(i) && keys[i].email == memberEmail {
				return i, domain.MatchLink{
					RegistrationID: regs[i].ID,
					MemberIndex:    mi,
					Group:          member.Group,
					Score:          scoreEmail,
					Basis:          domain.MatchBasisEmail,
				}, true
			}
		}
	}

	return 0, domain.MatchLink{}, false
}
