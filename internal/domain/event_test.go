package domain

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSequence(t *testing.T) {
	assert.Equal(t, 1, NextSequence(nil))
	assert.Equal(t, 4, NextSequence([]BalanceEvent{
		event("a", "2025-01-01", 3, ChangeInValue{Fund: "f", Amount: amt("1")}),
		event("b", "2025-01-01", 1, ChangeInValue{Fund: "f", Amount: amt("1")}),
	}))
}

func TestBalanceEvent_Ordering(t *testing.T) {
	first := event("a", "2025-01-01", 2, ChangeInValue{Fund: "f", Amount: amt("1")})
	second := event("a", "2025-01-02", 1, ChangeInValue{Fund: "f", Amount: amt("1")})
	third := event("a", "2025-01-02", 2, ChangeInValue{Fund: "f", Amount: amt("1")})

	events := []BalanceEvent{third, first, second}
	slices.SortFunc(events, CompareEvents)

	assert.Equal(t, []EventID{first.ID, second.ID, third.ID}, []EventID{events[0].ID, events[1].ID, events[2].ID})
	assert.True(t, second.Before(third))
}

func TestBalanceEvent_JSONKeepsVariant(t *testing.T) {
	events := []BalanceEvent{
		event("a", "2025-01-01", 1, AccountAdded{Funds: []FundAmount{{Fund: "f", Amount: amt("1")}}}),
		event("a", "2025-01-01", 2, ChangeInValue{Fund: "f", Amount: amt("-1")}),
		event("a", "2025-01-01", 3, FundConversion{From: "f", To: "g", Amount: amt("1")}),
		event("a", "2025-01-01", 4, TransactionEvent{Transaction: "t", Side: SideDebit, Phase: PhasePosted, Amounts: []FundAmount{{Fund: "f", Amount: amt("1")}}}),
	}

	for _, e := range events {
		data, err := json.Marshal(e)
		require.NoError(t, err)

		var back BalanceEvent
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, e.Payload.Kind(), back.Payload.Kind())
		assert.Equal(t, e.Sequence, back.Sequence)
		assert.Equal(t, e.Date, back.Date)
	}

	var bad BalanceEvent
	require.Error(t, json.Unmarshal([]byte(`{"kind":"teleport","payload":{}}`), &bad))
}
