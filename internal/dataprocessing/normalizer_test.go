package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/config"
	"regpulse/internal/errors"
	"regpulse/internal/shared/testutil"
	"regpulse/pkg/contracts/domain"
)

// legacyRow builds a minimal 45-cell row in the pre-change layout.
func legacyRow() []string {
	cells := make([]string, 45)
	cells[2] = "TXN1001"
	cells[4] = "05-10-2025 18:30:00"
	cells[5] = "Main Hall"
	cells[6] = "Annual Gathering"
	cells[7] = "12-10-2025"
	cells[9] = "GOLD A12"
	cells[10] = "1"
	cells[11] = "500"
	cells[20] = "Disha"
	cells[21] = "Daga"
	cells[22] = "34"
	cells[24] = "+91 98765 43210"
	cells[25] = "disha@example.com"
	return cells
}

// currentRow builds a 54-cell row in the widened layout.
func currentRow() []string {
	cells := make([]string, 54)
	copy(cells, legacyRow())
	cells[20] = ""
	cells[21] = ""
	cells[45] = "Diva Sheth"
	return cells
}

func newTestNormalizer(t *testing.T) *Normalizer {
	logger, _ := testutil.Logger(t)
	return NewNormalizer(logger)
}

func TestNormalizeRow_LegacyDiscreteNames(t *testing.T) {
	n := newTestNormalizer(t)

	reg, warnings, err := n.NormalizeRow(0, legacyRow())
	require.NoError(t, err)
	assert.Zero(t, warnings)

	assert.Equal(t, "TXN1001", reg.ID)
	assert.Equal(t, "TXN1001", reg.TransactionID)
	assert.Equal(t, "Disha", reg.Identity.FirstName)
	assert.Equal(t, "Daga", reg.Identity.LastName)
	assert.Equal(t, "Disha Daga", reg.Identity.DisplayName)
	assert.Equal(t, domain.FormVersionLegacy, reg.FormVersion)
	assert.Equal(t, 34, reg.Age)
	assert.Equal(t, 500.0, reg.Ticket.Amount)
	assert.False(t, reg.Ticket.Complimentary)
	assert.Equal(t, 1, reg.Ticket.Quantity)
	assert.Equal(t, "05-10-2025 18:30:00", reg.Transaction.Date)
	assert.Equal(t, "Main Hall", reg.Transaction.Venue)
}

func TestNormalizeRow_CurrentFullName(t *testing.T) {
	n := newTestNormalizer(t)

	reg, _, err := n.NormalizeRow(0, currentRow())
	require.NoError(t, err)

	assert.Equal(t, domain.FormVersionCurrent, reg.FormVersion)
	assert.Equal(t, "Diva", reg.Identity.FirstName)
	assert.Equal(t, "Sheth", reg.Identity.LastName)
	assert.Equal(t, "Diva Sheth", reg.Identity.DisplayName)
	assert.Empty(t, reg.Invitees, "current form carries no referral data")
}

func TestNormalizeRow_SingleTokenFullName(t *testing.T) {
	n := newTestNormalizer(t)

	cells := currentRow()
	cells[45] = "Madonna"

	reg, _, err := n.NormalizeRow(0, cells)
	require.NoError(t, err)
	assert.Equal(t, "Madonna", reg.Identity.FirstName)
	assert.Equal(t, "Madonna", reg.Identity.LastName)
	assert.Equal(t, "Madonna", reg.Identity.DisplayName)
}

func TestNormalizeRow_ComplimentaryHolderFallback(t *testing.T) {
	n := newTestNormalizer(t)

	cells := currentRow()
	cells[11] = "0" // comp row
	cells[45] = "N/A"
	cells[49] = "Rahul Mehta (Staff)"

	reg, _, err := n.NormalizeRow(0, cells)
	require.NoError(t, err)

	assert.True(t, reg.Ticket.Complimentary)
	assert.Equal(t, "Rahul", reg.Identity.FirstName)
	assert.Equal(t, "Mehta", reg.Identity.LastName)
}

func TestNormalizeRow_GuestLabelFallback(t *testing.T) {
	n := newTestNormalizer(t)

	cells := currentRow()
	cells[45] = ""

	reg, _, err := n.NormalizeRow(0, cells)
	require.NoError(t, err)

	assert.Equal(t, config.GuestLabelPrefix, reg.Identity.FirstName)
	assert.Equal(t, "TXN1001", reg.Identity.LastName, "short transaction ids are used whole")
	assert.Equal(t, "Guest TXN1001", reg.Identity.DisplayName)
}

func TestNormalizeRow_GuestLabelTruncatesLongTxnID(t *testing.T) {
	n := newTestNormalizer(t)

	cells := currentRow()
	cells[2] = "TXN123456789"
	cells[45] = ""

	reg, _, err := n.NormalizeRow(0, cells)
	require.NoError(t, err)
	assert.Equal(t, "TXN12345", reg.Identity.LastName)
}

func TestNormalizeRow_Malformed(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name  string
		cells []string
	}{
		{name: "too few cells", cells: make([]string, 30)},
		{name: "missing transaction id", cells: make([]string, 45)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := n.NormalizeRow(3, tt.cells)
			require.Error(t, err)
			assert.True(t, errors.IsAnomaly(err, errors.AnomalyMalformedRow))
		})
	}
}

func TestNormalizeRow_ProtectedEmailSentinel(t *testing.T) {
	n := newTestNormalizer(t)

	cells := legacyRow()
	cells[25] = `<a href="/cdn-cgi/l/email-protection" class="__cf_email__">[email protected]</a>`

	reg, _, err := n.NormalizeRow(0, cells)
	require.NoError(t, err)
	assert.Equal(t, config.ProtectedEmailSentinel, reg.Contact.Email)
}

func TestNormalizeRow_EmailExtractedFromMarkup(t *testing.T) {
	n := newTestNormalizer(t)

	cells := legacyRow()
	cells[25] = `mailto: disha.daga@example.com (preferred)`

	reg, _, err := n.NormalizeRow(0, cells)
	require.NoError(t, err)
	assert.Equal(t, "disha.daga@example.com", reg.Contact.Email)
}

func TestNormalizeRow_ParseWarnings(t *testing.T) {
	n := newTestNormalizer(t)

	cells := legacyRow()
	cells[11] = "abc"  // unparsable amount
	cells[22] = "old"  // unparsable age

	reg, warnings, err := n.NormalizeRow(0, cells)
	require.NoError(t, err)
	assert.Equal(t, 2, warnings)
	assert.Zero(t, reg.Ticket.Amount)
	assert.Zero(t, reg.Age)
	assert.True(t, reg.Ticket.Complimentary, "zero amount marks the ticket complimentary")
}

func TestNormalizeRow_ThousandsSeparators(t *testing.T) {
	n := newTestNormalizer(t)

	cells := legacyRow()
	cells[11] = "1,500"

	reg, warnings, err := n.NormalizeRow(0, cells)
	require.NoError(t, err)
	assert.Zero(t, warnings)
	assert.Equal(t, 1500.0, reg.Ticket.Amount)
}

func TestNormalizeRow_CompMarkerInSeatInfo(t *testing.T) {
	n := newTestNormalizer(t)

	cells := legacyRow()
	cells[9] = "COMPLIMENTARY BLOCK B"

	reg, _, err := n.NormalizeRow(0, cells)
	require.NoError(t, err)
	assert.True(t, reg.Ticket.Complimentary)
}

func TestNormalizeRow_BlankQuantityStaysZero(t *testing.T) {
	n := newTestNormalizer(t)

	cells := legacyRow()
	cells[10] = ""

	reg, warnings, err := n.NormalizeRow(0, cells)
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Ticket.Quantity, "blank numeric cells default to zero, never one")
	assert.Zero(t, warnings, "a blank cell is not a parse warning")
}

func TestNormalizeRow_UnparsableQuantityWarnsAndZeroes(t *testing.T) {
	n := newTestNormalizer(t)

	cells := legacyRow()
	cells[10] = "two"

	reg, warnings, err := n.NormalizeRow(0, cells)
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Ticket.Quantity)
	assert.Equal(t, 1, warnings)
}

func TestNormalizeRow_LegacyInvitees(t *testing.T) {
	n := newTestNormalizer(t)

	cells := legacyRow()
	// slots 0 and 2 filled, others empty
	cells[29] = "Amit Shah"
	cells[30] = "9876500001"
	cells[35] = "Priya Rao"
	cells[37] = "priya@example.com"

	reg, _, err := n.NormalizeRow(0, cells)
	require.NoError(t, err)

	require.Len(t, reg.Invitees, 5)
	assert.Equal(t, "Amit Shah", reg.Invitees[0].Name)
	assert.True(t, reg.Invitees[1].IsEmpty())
	assert.Equal(t, "Priya Rao", reg.Invitees[2].Name)
	assert.Equal(t, "priya@example.com", reg.Invitees[2].Email)
	assert.Equal(t, 2, reg.InviteeCount())
}

func TestNormalizeBatch(t *testing.T) {
	logger, captured := testutil.Logger(t)
	n := NewNormalizer(logger)

	bad := legacyRow()
	bad[11] = "free?" // one warning

	rows := [][]string{
		legacyRow(),
		make([]string, 10), // malformed
		currentRow(),
		bad,
	}

	result := n.NormalizeBatch(context.Background(), rows)

	assert.Equal(t, 4, result.RowsTotal)
	assert.Len(t, result.Registrations, 3)
	assert.Equal(t, 1, result.Malformed)
	assert.Equal(t, 1, result.ParseWarnings)
	assert.True(t, captured.HasMessage("skipping unmappable row"))
}
