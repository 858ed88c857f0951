package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/pkg/contracts/domain"
)

func TestExpand(t *testing.T) {
	regs := []domain.Registration{
		{
			ID:            "T1",
			TransactionID: "T1",
			Identity:      domain.Identity{DisplayName: "Comp Holder"},
			Ticket:        domain.TicketMeta{Complimentary: true, Quantity: 3},
		},
		{
			ID:            "T2",
			TransactionID: "T2",
			Ticket:        domain.TicketMeta{Amount: 500, Quantity: 4},
		},
		{
			ID:            "T3",
			TransactionID: "T3",
			Ticket:        domain.TicketMeta{Complimentary: true, Quantity: 1},
		},
	}

	out, expanded := Expand(regs)

	require.Len(t, out, 5)
	assert.Equal(t, 2, expanded)

	assert.Equal(t, "T1_comp_1", out[0].ID)
	assert.Equal(t, "T1_comp_2", out[1].ID)
	assert.Equal(t, "T1_comp_3", out[2].ID)
	for _, r := range out[:3] {
		assert.Equal(t, "T1", r.TransactionID)
		assert.Equal(t, 1, r.Ticket.Quantity)
		assert.Equal(t, "Comp Holder", r.Identity.DisplayName)
	}

	assert.Equal(t, "T2", out[3].ID, "paid multi-ticket rows pass through unchanged")
	assert.Equal(t, 4, out[3].Ticket.Quantity)

	assert.Equal(t, "T3", out[4].ID, "single comp tickets keep their original key")
}

func TestExpand_Empty(t *testing.T) {
	out, expanded := Expand(nil)
	assert.Empty(t, out)
	assert.Zero(t, expanded)
}
