package reports

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
)

func TestStore_SaveLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	b, err := domain.NewAccountBalance("acc-1", domain.AccountTypeStandard,
		[]domain.FundAmount{{Fund: "groceries", Amount: decimal.NewFromInt(500)}},
		[]domain.FundAmount{{Fund: "groceries", Amount: decimal.NewFromInt(-80)}})
	require.NoError(t, err)

	r := Report{
		GeneratedAt: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
		Date:        date.MustParse("2025-01-31"),
		Currency:    "USD",
		Accounts:    []AccountReport{{Name: "Checking", Type: domain.AccountTypeStandard, Balance: b}},
		Funds:       []FundReport{{Name: "Groceries", Settled: decimal.NewFromInt(500), Pending: decimal.NewFromInt(-80)}},
	}

	path, err := store.Save("January 2025", r)
	require.NoError(t, err)
	assert.Equal(t, "january-2025.json", filepath.Base(path))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file is renamed away")

	loaded, err := store.Load("January 2025")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, r.Date, loaded.Date)
	assert.True(t, r.GeneratedAt.Equal(loaded.GeneratedAt))
	require.Len(t, loaded.Accounts, 1)
	assert.True(t, b.Equal(loaded.Accounts[0].Balance))
	assert.True(t, loaded.Funds[0].Pending.Equal(decimal.NewFromInt(-80)))
}

func TestStore_LoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	r, err := store.Load("nothing")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "household-q1", sanitizeName("  Household / Q1 "))
	assert.Equal(t, "", sanitizeName("!!!"))

	store := &Store{dir: "out"}
	assert.Equal(t, filepath.Join("out", "balances.json"), store.Path("!!!"))
}

func TestDir(t *testing.T) {
	t.Setenv("FUNDLEDGER_REPORT_DIR", "/tmp/fundledger-reports")
	assert.Equal(t, "/tmp/fundledger-reports", Dir())
}
