package domain

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/fundledger/internal/date"
)

func TestNewTransaction_Validation(t *testing.T) {
	a := AccountID("a")
	on := date.MustParse("2025-01-10")

	_, err := NewTransaction("p", on, nil, nil, []FundAmount{{Fund: "f", Amount: amt("1")}})
	require.Error(t, err)

	_, err = NewTransaction("p", on, &a, &a, []FundAmount{{Fund: "f", Amount: amt("1")}})
	require.Error(t, err)

	_, err = NewTransaction("p", on, &a, nil, []FundAmount{{Fund: "f", Amount: amt("1")}, {Fund: "f", Amount: amt("-2")}})
	require.Error(t, err)
	assert.Len(t, Errors(err), 2)
	assert.True(t, errors.Is(err, ErrStructural))
}

func TestTransaction_Post(t *testing.T) {
	a, b := AccountID("a"), AccountID("b")
	tx, err := NewTransaction("p", date.MustParse("2025-01-10"), &a, &b, []FundAmount{{Fund: "f", Amount: amt("5")}})
	require.NoError(t, err)
	assert.Equal(t, []TransactionSide{SideDebit, SideCredit}, tx.Sides())

	_, err = tx.Post(SideDebit, date.MustParse("2025-01-09"))
	require.Error(t, err, "posting before the transaction date")

	posted, err := tx.Post(SideDebit, date.MustParse("2025-01-12"))
	require.NoError(t, err)
	assert.Equal(t, StatePosted, posted.Debit.State)
	assert.Equal(t, StateUnposted, tx.Debit.State, "original is untouched")
	assert.False(t, posted.FullyPosted())

	_, err = posted.Post(SideDebit, date.MustParse("2025-01-13"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLifecycle))

	posted, err = posted.Post(SideCredit, date.MustParse("2025-01-13"))
	require.NoError(t, err)
	assert.True(t, posted.FullyPosted())

	onlyDebit, err := NewTransaction("p", date.MustParse("2025-01-10"), &a, nil, []FundAmount{{Fund: "f", Amount: amt("5")}})
	require.NoError(t, err)
	_, err = onlyDebit.Post(SideCredit, date.MustParse("2025-01-10"))
	require.Error(t, err)
}

func TestTransaction_Event(t *testing.T) {
	a := AccountID("a")
	tx, err := NewTransaction("p", date.MustParse("2025-01-10"), nil, &a, []FundAmount{{Fund: "f", Amount: amt("5")}})
	require.NoError(t, err)

	e := tx.Event(SideCredit, PhaseAdded, tx.Date)
	assert.Equal(t, a, e.Account)
	assert.Equal(t, PeriodID("p"), e.Period)
	payload, ok := e.Payload.(TransactionEvent)
	require.True(t, ok)
	assert.Equal(t, tx.ID, payload.Transaction)
	assert.Equal(t, PhaseAdded, payload.Phase)
}
