package internal

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/fundledger/config"
	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
	"github.com/vadiminshakov/fundledger/internal/services/ledger"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = NewLogger("loud")
	assert.Error(t, err)
}

func TestApp_ReopenReplaysLedger(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.WALDir = t.TempDir()

	app, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)

	fund, err := app.Ledger.CreateFund(ctx, "Savings")
	require.NoError(t, err)
	jan, err := app.Ledger.CreateAccountingPeriod(ctx, 2025, time.January)
	require.NoError(t, err)
	account, err := app.Ledger.CreateAccount(ctx, ledger.CreateAccountRequest{
		Name:   "Checking",
		Type:   domain.AccountTypeStandard,
		Period: jan.ID,
		Date:   date.MustParse("2025-01-01"),
		Funds:  []domain.FundAmount{{Fund: fund.ID, Amount: decimal.NewFromInt(1500)}},
	})
	require.NoError(t, err)
	_, err = app.Ledger.AddChangeInValue(ctx, ledger.ChangeInValueRequest{
		Account: account.ID,
		Period:  jan.ID,
		Date:    date.MustParse("2025-01-10"),
		Fund:    fund.ID,
		Amount:  decimal.NewFromInt(-1000),
	})
	require.NoError(t, err)
	require.NoError(t, app.Close())

	reopened, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	b, err := reopened.Balances.BalanceAsOfDate(account.ID, date.MustParse("2025-01-31"))
	require.NoError(t, err)
	assert.True(t, b.SettledFor(fund.ID).Equal(decimal.NewFromInt(500)))

	_, err = reopened.Ledger.CreateFund(ctx, "Savings")
	assert.Error(t, err, "fund names survive a restart")
}
