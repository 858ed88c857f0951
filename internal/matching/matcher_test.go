package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/shared/testutil"
	"regpulse/pkg/contracts/domain"
)

func reg(id, name, phone, email string) domain.Registration {
	return domain.Registration{
		ID:            id,
		TransactionID: id,
		Identity:      domain.Identity{DisplayName: name},
		Contact:       domain.Contact{Phone: phone, Email: email},
	}
}

func member(name, phone, email, group string) domain.GroupMember {
	return domain.GroupMember{FullName: name, MobileNumber: phone, Email: email, Group: group}
}

func newTestMatcher(t *testing.T) *Matcher {
	logger, _ := testutil.Logger(t)
	return NewMatcher(logger, "91")
}

func TestMatch_ScoredCandidateWins(t *testing.T) {
	m := newTestMatcher(t)

	// Two registrations share the name; phone agreement picks the right one.
	regs := []domain.Registration{
		reg("R1", "Asha Patel", "9000000001", "other@example.com"),
		reg("R2", "Asha Patel", "9876543210", "asha@example.com"),
	}
	members := []domain.GroupMember{
		member("Asha Patel", "+91 98765 43210", "asha@example.com", "North"),
	}

	result := m.Match(context.Background(), regs, members)

	require.Len(t, result.Links, 1)
	link := result.Links[0]
	assert.Equal(t, "R2", link.RegistrationID)
	assert.Equal(t, domain.MatchBasisScored, link.Basis)
	assert.Equal(t, 5, link.Score, "phone and email both agree")
	assert.Equal(t, "North", link.Group)
	assert.Zero(t, result.NameOnlyAccepted)
	assert.Zero(t, result.AmbiguousRejected)
}

func TestMatch_SingletonNameOnlyAccepted(t *testing.T) {
	m := newTestMatcher(t)

	regs := []domain.Registration{reg("R1", "Kiran Rao", "", "")}
	members := []domain.GroupMember{member("Kiran Rao", "", "", "South")}

	result := m.Match(context.Background(), regs, members)

	require.Len(t, result.Links, 1)
	assert.Equal(t, domain.MatchBasisNameOnly, result.Links[0].Basis)
	assert.Zero(t, result.Links[0].Score)
	assert.Equal(t, 1, result.NameOnlyAccepted)
}

func TestMatch_AmbiguousNameRejected(t *testing.T) {
	m := newTestMatcher(t)

	// Two same-named registrations with no confirming signal anywhere.
	regs := []domain.Registration{
		reg("R1", "Ravi Kumar", "", ""),
		reg("R2", "Ravi Kumar", "", ""),
	}
	members := []domain.GroupMember{member("Ravi Kumar", "", "", "East")}

	result := m.Match(context.Background(), regs, members)

	assert.Empty(t, result.Links, "a name collision is never guessed at")
	assert.Equal(t, 1, result.AmbiguousRejected)
	assert.Equal(t, 1, result.UnmatchedMembers)
}

func TestMatch_AmbiguousFallsThroughToPhone(t *testing.T) {
	m := newTestMatcher(t)

	regs := []domain.Registration{
		reg("R1", "Ravi Kumar", "9000000001", ""),
		reg("R2", "Ravi Kumar", "9000000002", ""),
	}
	// Member phone matches neither candidate by score (name candidates
	// carry it too), but matches R2 in the phone fallback.
	members := []domain.GroupMember{member("Ravi Kumar", "9000000002", "", "East")}

	result := m.Match(context.Background(), regs, members)

	// Phone agreement resolves the collision in scoring already.
	require.Len(t, result.Links, 1)
	assert.Equal(t, "R2", result.Links[0].RegistrationID)
	assert.Equal(t, domain.MatchBasisScored, result.Links[0].Basis)
}

func TestMatch_PhoneFallbackWhenNameDiffers(t *testing.T) {
	m := newTestMatcher(t)

	// Married name on the roster, maiden name on the registration.
	regs := []domain.Registration{reg("R1", "Meera Shah", "9876543210", "")}
	members := []domain.GroupMember{member("Meera Desai", "9876543210", "", "West")}

	result := m.Match(context.Background(), regs, members)

	require.Len(t, result.Links, 1)
	assert.Equal(t, domain.MatchBasisPhone, result.Links[0].Basis)
	assert.Equal(t, 3, result.Links[0].Score)
}

func TestMatch_EmailFallback(t *testing.T) {
	m := newTestMatcher(t)

	regs := []domain.Registration{reg("R1", "M Shah", "", "meera@example.com")}
	members := []domain.GroupMember{member("Meera Desai", "", "Meera@Example.com", "West")}

	result := m.Match(context.Background(), regs, members)

	require.Len(t, result.Links, 1)
	assert.Equal(t, domain.MatchBasisEmail, result.Links[0].Basis)
	assert.Equal(t, 2, result.Links[0].Score)
}

func TestMatch_AlternatePhoneUsed(t *testing.T) {
	m := newTestMatcher(t)

	regs := []domain.Registration{reg("R1", "Dev Nair", "9876543210", "")}
	members := []domain.GroupMember{{
		FullName:              "Dev Nair",
		AlternateMobileNumber: "9876543210",
		Group:                 "North",
	}}

	result := m.Match(context.Background(), regs, members)

	require.Len(t, result.Links, 1)
	assert.Equal(t, domain.MatchBasisScored, result.Links[0].Basis)
}

func TestMatch_FirstClaimWins(t *testing.T) {
	m := newTestMatcher(t)

	// One registration, two members who would both match it. Roster
	// order decides: the earlier member claims it, the later goes
	// unmatched.
	regs := []domain.Registration{reg("R1", "Asha Patel", "9876543210", "")}
	members := []domain.GroupMember{
		member("Asha Patel", "9876543210", "", "North"),
		member("Asha Patel", "9876543210", "", "South"),
	}

	result := m.Match(context.Background(), regs, members)

	require.Len(t, result.Links, 1)
	assert.Equal(t, "North", result.Links[0].Group)
	assert.Equal(t, 1, result.UnmatchedMembers)
	assert.True(t, result.Claims.RegClaimed(0))
	assert.True(t, result.Claims.MemberClaimed(0))
	assert.False(t, result.Claims.MemberClaimed(1))
}

func TestMatch_SharedTransactionIDSiblings(t *testing.T) {
	m := newTestMatcher(t)

	// A non-complimentary group purchase leaves siblings sharing one
	// transaction id. Claims must track positions, not ids: each sibling
	// is claimable exactly once, even though their ids collide.
	regs := []domain.Registration{
		reg("T1", "Asha Rao", "9111111111", ""),
		reg("T1", "Bina Rao", "", ""),
	}
	members := []domain.GroupMember{
		member("Bina Rao", "", "", "North"),
		member("Bina Rao", "", "", "North"),
		member("Asha Rao", "9111111111", "", "South"),
	}

	result := m.Match(context.Background(), regs, members)

	require.Len(t, result.Links, 2)
	assert.Equal(t, 0, result.Links[0].MemberIndex)
	assert.Equal(t, 2, result.Links[1].MemberIndex)
	assert.Equal(t, domain.MatchBasisScored, result.Links[1].Basis,
		"the phone-confirmed sibling stays available for its own member")
	assert.Equal(t, 1, result.UnmatchedMembers)
	assert.True(t, result.Claims.RegClaimed(0))
	assert.True(t, result.Claims.RegClaimed(1))
}

func TestMatch_Deterministic(t *testing.T) {
	m := newTestMatcher(t)

	regs := []domain.Registration{
		reg("R1", "Asha Patel", "9000000001", ""),
		reg("R2", "Ravi Kumar", "9000000002", ""),
		reg("R3", "Kiran Rao", "", "kiran@example.com"),
	}
	members := []domain.GroupMember{
		member("Ravi Kumar", "9000000002", "", "East"),
		member("Asha Patel", "9000000001", "", "North"),
		member("Kiran Rao", "", "kiran@example.com", "South"),
	}

	first := m.Match(context.Background(), regs, members)
	for i := 0; i < 5; i++ {
		again := m.Match(context.Background(), regs, members)
		assert.Equal(t, first.Links, again.Links)
	}
}

func TestMatch_AtMostOneLinkPerRegistration(t *testing.T) {
	m := newTestMatcher(t)

	regs := []domain.Registration{reg("R1", "Asha Patel", "9876543210", "asha@example.com")}
	members := []domain.GroupMember{
		member("Asha Patel", "9876543210", "", "North"),
		member("Someone Else", "9876543210", "", "South"),  // phone fallback target already claimed
		member("Another One", "", "asha@example.com", "West"), // email fallback target already claimed
	}

	result := m.Match(context.Background(), regs, members)

	require.Len(t, result.Links, 1)
	assert.Equal(t, 2, result.UnmatchedMembers)
}
