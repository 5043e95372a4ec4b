package main

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/fundledger/config"
	"github.com/vadiminshakov/fundledger/internal/storage/reports"
)

func newSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.WALDir = t.TempDir()
	cfg.LogLevel = "error"
	out := &bytes.Buffer{}
	return &session{cfg: &cfg, out: out}, out
}

func execute(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cmd.Execute(context.Background(), fs)
}

func TestCommands_CheckingScenario(t *testing.T) {
	s, out := newSession(t)

	require.Equal(t, subcommands.ExitSuccess, execute(t, &fundCmd{s: s}, "-name", "Groceries"))
	require.Equal(t, subcommands.ExitSuccess, execute(t, &periodCmd{s: s}, "-month", "2025-01"))
	require.Equal(t, subcommands.ExitSuccess, execute(t, &accountCmd{s: s},
		"-name", "Checking", "-date", "2025-01-01", "-funds", "Groceries=1500"))

	assert.Equal(t, subcommands.ExitFailure, execute(t, &changeCmd{s: s},
		"-account", "Checking", "-fund", "Groceries", "-date", "2025-01-10", "-amount", "-4000"))
	require.Equal(t, subcommands.ExitSuccess, execute(t, &changeCmd{s: s},
		"-account", "Checking", "-fund", "Groceries", "-date", "2025-01-10", "-amount", "-1000"))
	assert.Equal(t, subcommands.ExitFailure, execute(t, &changeCmd{s: s},
		"-account", "Checking", "-fund", "Groceries", "-date", "2025-01-05", "-amount", "-600"))

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, &balanceCmd{s: s}, "-account", "Checking", "-date", "2025-01-31"))
	assert.Contains(t, out.String(), "$500.00")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, &balanceCmd{s: s}, "-account", "Checking", "-date", "2025-01-09"))
	assert.Contains(t, out.String(), "$1,500.00")
}

func TestCommands_TransactionAndClose(t *testing.T) {
	s, out := newSession(t)

	require.Equal(t, subcommands.ExitSuccess, execute(t, &fundCmd{s: s}, "-name", "Groceries"))
	require.Equal(t, subcommands.ExitSuccess, execute(t, &periodCmd{s: s}, "-month", "2025-01"))
	require.Equal(t, subcommands.ExitSuccess, execute(t, &periodCmd{s: s}, "-month", "2025-02"))
	require.Equal(t, subcommands.ExitSuccess, execute(t, &accountCmd{s: s},
		"-name", "Checking", "-date", "2025-01-01", "-funds", "Groceries=600"))
	require.Equal(t, subcommands.ExitSuccess, execute(t, &accountCmd{s: s},
		"-name", "Visa", "-type", "debt", "-date", "2025-01-01"))

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, &txCmd{s: s},
		"-debit", "Visa", "-date", "2025-01-12", "-amounts", "Groceries=80"))
	fields := strings.Fields(out.String())
	require.Len(t, fields, 3)
	txID := fields[1]

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, &postCmd{s: s}, "-tx", txID, "-side", "debit", "-date", "2025-01-14"))
	assert.Contains(t, out.String(), "fully posted")
	assert.Equal(t, subcommands.ExitFailure, execute(t, &postCmd{s: s}, "-tx", txID, "-side", "debit", "-date", "2025-01-15"))

	assert.Equal(t, subcommands.ExitFailure, execute(t, &closeCmd{s: s}, "-month", "2025-02"), "only the earliest open period closes")
	require.Equal(t, subcommands.ExitSuccess, execute(t, &closeCmd{s: s}, "-month", "2025-01"))

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, &balanceCmd{s: s}, "-account", "Visa", "-period", "2025-01"))
	assert.Contains(t, out.String(), "$80.00")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, &balanceCmd{s: s}, "-date", "2025-01-31"))
	assert.Contains(t, out.String(), "Checking")
	assert.Contains(t, out.String(), "Visa")
}

func TestCommands_Import(t *testing.T) {
	s, out := newSession(t)

	require.Equal(t, subcommands.ExitSuccess, execute(t, &importCmd{s: s}, "-f", "../internal/services/importer/testdata/household.yaml"))
	assert.Contains(t, out.String(), "events: 9")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, &balanceCmd{s: s}, "-fund", "Groceries", "-date", "2025-01-31"))
	assert.NotEmpty(t, out.String())
}

func TestCommands_UsageErrors(t *testing.T) {
	s, _ := newSession(t)

	assert.Equal(t, subcommands.ExitUsageError, execute(t, &fundCmd{s: s}))
	assert.Equal(t, subcommands.ExitUsageError, execute(t, &periodCmd{s: s}, "-month", "January"))
	assert.Equal(t, subcommands.ExitUsageError, execute(t, &txCmd{s: s}, "-amounts", "Groceries=1"))
	assert.Equal(t, subcommands.ExitUsageError, execute(t, &postCmd{s: s}, "-tx", "x", "-side", "both"))
	assert.Equal(t, subcommands.ExitUsageError, execute(t, &changeCmd{s: s}, "-amount", "ten"))
	assert.Equal(t, subcommands.ExitUsageError, execute(t, &balanceCmd{s: s}, "-period", "2025-01"))
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"500", "USD", "$500.00"},
		{"1301.25", "USD", "$1,301.25"},
		{"-120", "USD", "-$120.00"},
		{"0.005", "USD", "$0.01"},
		{"12", "NOPE", "12 NOPE"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAmount(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}

func TestCommands_Export(t *testing.T) {
	s, _ := newSession(t)
	require.Equal(t, subcommands.ExitSuccess, execute(t, &importCmd{s: s}, "-f", "../internal/services/importer/testdata/household.yaml"))

	dir := t.TempDir()
	require.Equal(t, subcommands.ExitSuccess, execute(t, &exportCmd{s: s}, "-date", "2025-01-31", "-dir", dir, "-name", "january"))

	store, err := reports.NewStore(dir)
	require.NoError(t, err)
	r, err := store.Load("january")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Len(t, r.Accounts, 2)
	assert.Len(t, r.Funds, 2)
	assert.Equal(t, "USD", r.Currency)
}
