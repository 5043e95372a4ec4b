package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
	"github.com/vadiminshakov/fundledger/internal/services/balance"
	"github.com/vadiminshakov/fundledger/internal/services/ledger"
	"github.com/vadiminshakov/fundledger/internal/storage/ledgerstore"
)

func newImporter() (*Importer, *ledgerstore.Store, *balance.Service) {
	store := ledgerstore.New()
	balances := balance.NewService(store, zap.NewNop())
	svc := ledger.NewService(store, balances, zap.NewNop())
	return New(svc, store, zap.NewNop()), store, balances
}

func TestImporter_ImportFile(t *testing.T) {
	imp, store, balances := newImporter()

	sum, err := imp.ImportFile(context.Background(), "testdata/household.yaml")
	require.NoError(t, err)
	assert.Equal(t, Summary{Funds: 2, Periods: 2, Accounts: 2, Events: 9, Transactions: 2, Closed: 1}, sum)

	checking, ok := store.AccountByName("Checking")
	require.True(t, ok)
	visa, ok := store.AccountByName("Visa")
	require.True(t, ok)
	groceries, ok := store.FundByName("Groceries")
	require.True(t, ok)

	feb, ok := store.PeriodByMonth(date.Month{Year: 2025, Month: 2})
	require.True(t, ok)
	_, ok = store.Checkpoint(checking.ID, feb.ID)
	assert.True(t, ok, "closing January checkpoints February")

	b, err := balances.BalanceAsOfDate(checking.ID, date.MustParse("2025-02-28"))
	require.NoError(t, err)
	assert.True(t, b.SettledFor(groceries.ID).Equal(decimal.NewFromInt(500)), "got %s", b.SettledFor(groceries.ID))
	assert.True(t, b.SettledTotal().Equal(decimal.RequireFromString("1301.25")), "got %s", b.SettledTotal())

	owed, err := balances.BalanceAsOfDate(visa.ID, date.MustParse("2025-01-31"))
	require.NoError(t, err)
	assert.True(t, owed.Total().IsZero())
}

func TestImporter_StopsAtInvalidEntry(t *testing.T) {
	imp, store, _ := newImporter()

	doc := `
funds: [Cash]
periods:
  - month: 2025-03
    accounts:
      - name: Wallet
        type: standard
        date: 2025-03-01
        funds: {Cash: "10"}
    events:
      - type: change
        account: Wallet
        date: 2025-03-02
        fund: Cash
        amount: "-11"
`
	_, err := imp.Import(context.Background(), strings.NewReader(doc))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
	assert.Contains(t, err.Error(), "event 1")

	_, ok := store.AccountByName("Wallet")
	assert.True(t, ok, "entries before the failure stay committed")
}

func TestImporter_RejectsUnknownFields(t *testing.T) {
	imp, _, _ := newImporter()

	_, err := imp.Import(context.Background(), strings.NewReader("fundz: [Cash]\n"))
	require.Error(t, err)
}
