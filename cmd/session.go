package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/google/subcommands"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/fundledger/config"
	"github.com/vadiminshakov/fundledger/internal"
	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
)

// session carries what every command needs to open the ledger.
type session struct {
	flags *config.Flags
	cfg   *config.Config
	out   io.Writer
}

type registration struct {
	cmd   subcommands.Command
	group string
}

func (s *session) commands() []registration {
	return []registration{
		{&fundCmd{s: s}, "setup"},
		{&accountCmd{s: s}, "setup"},
		{&periodCmd{s: s}, "periods"},
		{&closeCmd{s: s}, "periods"},
		{&changeCmd{s: s}, "events"},
		{&convertCmd{s: s}, "events"},
		{&txCmd{s: s}, "events"},
		{&postCmd{s: s}, "events"},
		{&importCmd{s: s}, "events"},
		{&balanceCmd{s: s}, "reports"},
		{&exportCmd{s: s}, "reports"},
		{&serveCmd{s: s}, "server"},
	}
}

func (s *session) config() (config.Config, error) {
	if s.cfg != nil {
		return *s.cfg, nil
	}
	return s.flags.Load()
}

// run opens the ledger, calls fn and maps the outcome to an exit status.
func (s *session) run(ctx context.Context, fn func(ctx context.Context, app *internal.App) error) subcommands.ExitStatus {
	cfg, err := s.config()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	logger, err := internal.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	defer logger.Sync()

	app, err := internal.Open(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	if err := fn(ctx, app); err != nil {
		for _, problem := range domain.Errors(err) {
			fmt.Fprintln(os.Stderr, "Error:", problem)
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (s *session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func usageError(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}

func lookupAccount(app *internal.App, name string) (domain.Account, error) {
	account, ok := app.Store.AccountByName(name)
	if !ok {
		return domain.Account{}, domain.NotFoundf("account %q", name)
	}
	return account, nil
}

func lookupFund(app *internal.App, name string) (domain.Fund, error) {
	fund, ok := app.Store.FundByName(name)
	if !ok {
		return domain.Fund{}, domain.NotFoundf("fund %q", name)
	}
	return fund, nil
}

// lookupPeriod resolves a YYYY-MM month, defaulting to the month of on.
func lookupPeriod(app *internal.App, month string, on date.Date) (domain.AccountingPeriod, error) {
	m := on.MonthOf()
	if month != "" {
		parsed, err := date.ParseMonth(month)
		if err != nil {
			return domain.AccountingPeriod{}, domain.Structuralf("%v", err)
		}
		m = parsed
	}
	period, ok := app.Store.PeriodByMonth(m)
	if !ok {
		return domain.AccountingPeriod{}, domain.NotFoundf("accounting period %s", m)
	}
	return period, nil
}

// parseFundAmounts reads "Groceries=600,Savings=900".
func parseFundAmounts(app *internal.App, raw string) ([]domain.FundAmount, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var (
		out      []domain.FundAmount
		problems domain.Problems
	)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			problems.Addf(domain.ErrStructural, "fund amount %q must be name=amount", pair)
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			problems.Addf(domain.ErrStructural, "fund amount %q: %v", pair, err)
			continue
		}
		fund, err := lookupFund(app, strings.TrimSpace(name))
		if err != nil {
			problems.Add(err)
			continue
		}
		out = append(out, domain.FundAmount{Fund: fund.ID, Amount: amount})
	}
	return out, problems.Err()
}

func parseDate(raw string) (date.Date, error) {
	if raw == "" {
		return date.Today(), nil
	}
	d, err := date.Parse(raw)
	if err != nil {
		return date.Date{}, errors.Wrap(err, "parse date")
	}
	return d, nil
}

// formatAmount renders amount in the display currency.
func formatAmount(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.String() + " " + currency
	}
	return cur.Formatter().Format(amount.Shift(int32(cur.Fraction)).Round(0).IntPart())
}
