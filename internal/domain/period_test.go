package domain

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/fundledger/internal/date"
)

func TestNewAccountingPeriod(t *testing.T) {
	p, err := NewAccountingPeriod(2025, time.January)
	require.NoError(t, err)
	assert.True(t, p.Open)
	assert.Equal(t, date.MustParse("2025-01-01"), p.Start())

	_, err = NewAccountingPeriod(2019, time.March)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStructural))

	_, err = NewAccountingPeriod(2051, 13)
	require.Error(t, err)
	assert.Len(t, Errors(err), 2, "both problems are reported")
}

func TestAccountingPeriod_Close(t *testing.T) {
	p, err := NewAccountingPeriod(2025, time.February)
	require.NoError(t, err)

	closed, err := p.Close()
	require.NoError(t, err)
	assert.False(t, closed.Open)

	_, err = closed.Close()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLifecycle))
}

func TestAccountingPeriod_AcceptsDate(t *testing.T) {
	p, err := NewAccountingPeriod(2025, time.January)
	require.NoError(t, err)

	assert.True(t, p.AcceptsDate(date.MustParse("2024-12-01")))
	assert.True(t, p.AcceptsDate(date.MustParse("2025-02-28")))
	assert.False(t, p.AcceptsDate(date.MustParse("2024-11-30")))
	assert.False(t, p.AcceptsDate(date.MustParse("2025-03-01")))
}

func TestNewCheckpoint(t *testing.T) {
	p, err := NewAccountingPeriod(2025, time.February)
	require.NoError(t, err)

	pending, err := NewAccountBalance("a", AccountTypeStandard,
		[]FundAmount{{Fund: "f", Amount: amt("10")}},
		[]FundAmount{{Fund: "f", Amount: amt("-1")}})
	require.NoError(t, err)
	_, err = NewCheckpoint(p, pending)
	require.Error(t, err)

	settled, err := NewAccountBalance("a", AccountTypeStandard, []FundAmount{{Fund: "f", Amount: amt("10")}}, nil)
	require.NoError(t, err)
	cp, err := NewCheckpoint(p, settled)
	require.NoError(t, err)
	assert.Equal(t, p.Start(), cp.Boundary())

	back, err := cp.Balance(AccountTypeStandard)
	require.NoError(t, err)
	assert.True(t, back.Equal(settled))
}
