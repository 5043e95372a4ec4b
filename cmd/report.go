package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/subcommands"

	"github.com/vadiminshakov/fundledger/internal"
	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
	"github.com/vadiminshakov/fundledger/internal/storage/reports"
)

type balanceCmd struct {
	s       *session
	account string
	fund    string
	date    string
	from    string
	period  string
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "show account or fund balances" }
func (*balanceCmd) Usage() string {
	return `fundledger balance [-account <name> | -fund <name>] [-date YYYY-MM-DD] [-from YYYY-MM-DD] [-period YYYY-MM]

  Without -account or -fund, lists every account at the end of -date.
  -period shows an account's starting and ending balance for the period.
  -from lists an account's balance at the end of each day up to -date.
`
}

func (c *balanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account name.")
	f.StringVar(&c.fund, "fund", "", "Fund name, summed over all accounts.")
	f.StringVar(&c.date, "date", "", "Balance date. Defaults to today.")
	f.StringVar(&c.from, "from", "", "First day of a daily listing.")
	f.StringVar(&c.period, "period", "", "Accounting period month.")
}

func (c *balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	on, err := parseDate(c.date)
	if err != nil {
		return usageError("%v", err)
	}
	if (c.period != "" || c.from != "") && c.account == "" {
		return usageError("-period and -from need -account")
	}

	return c.s.run(ctx, func(ctx context.Context, app *internal.App) error {
		cur := app.Config.Currency
		switch {
		case c.fund != "":
			return c.fundTotal(app, on, cur)
		case c.account == "":
			return c.allAccounts(app, on, cur)
		case c.period != "":
			return c.periodBalance(app, cur)
		case c.from != "":
			return c.daily(app, on, cur)
		}

		account, err := lookupAccount(app, c.account)
		if err != nil {
			return err
		}
		b, err := app.Balances.BalanceAsOfDate(account.ID, on)
		if err != nil {
			return err
		}
		c.s.printf("%s (%s) on %s\n%s\n", account.Name, account.Type, on, fundTable(app, b, cur))
		return nil
	})
}

func (c *balanceCmd) allAccounts(app *internal.App, on date.Date, cur string) error {
	t := newTable("Account", "Type", "Balance", "Pending")
	for _, account := range app.Store.Accounts() {
		if account.AddedDate().After(on) {
			continue
		}
		b, err := app.Balances.BalanceAsOfDate(account.ID, on)
		if err != nil {
			return err
		}
		t.Row(account.Name, account.Type.String(), formatAmount(b.SettledTotal(), cur), formatAmount(b.PendingTotal(), cur))
	}
	c.s.printf("Balances on %s\n%s\n", on, t)
	return nil
}

func (c *balanceCmd) fundTotal(app *internal.App, on date.Date, cur string) error {
	fund, err := lookupFund(app, c.fund)
	if err != nil {
		return err
	}
	fb, err := app.Balances.FundBalanceAsOfDate(fund.ID, on)
	if err != nil {
		return err
	}
	c.s.printf("%s on %s: %s settled, %s pending\n", fund.Name, on, formatAmount(fb.Settled, cur), formatAmount(fb.Pending, cur))
	return nil
}

func (c *balanceCmd) periodBalance(app *internal.App, cur string) error {
	account, err := lookupAccount(app, c.account)
	if err != nil {
		return err
	}
	period, err := lookupPeriod(app, c.period, date.Date{})
	if err != nil {
		return err
	}
	pb, err := app.Balances.BalanceForPeriod(account.ID, period.ID)
	if err != nil {
		return err
	}
	c.s.printf("%s, period %s\nStarting\n%s\nEnding\n%s\n", account.Name, pb.Period, fundTable(app, pb.Starting, cur), fundTable(app, pb.Ending, cur))
	return nil
}

func (c *balanceCmd) daily(app *internal.App, on date.Date, cur string) error {
	account, err := lookupAccount(app, c.account)
	if err != nil {
		return err
	}
	from, err := parseDate(c.from)
	if err != nil {
		return err
	}
	days, err := app.Balances.BalancesByDateRange(account.ID, date.Between(from, on))
	if err != nil {
		return err
	}
	t := newTable("Date", "Balance", "Pending")
	for _, day := range days {
		t.Row(day.Date.String(), formatAmount(day.Balance.SettledTotal(), cur), formatAmount(day.Balance.PendingTotal(), cur))
	}
	c.s.printf("%s\n%s\n", account.Name, t)
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().Border(lipgloss.NormalBorder()).Headers(headers...)
}

func fundTable(app *internal.App, b domain.AccountBalance, cur string) *table.Table {
	t := newTable("Fund", "Settled", "Pending", "Total")
	for _, fund := range app.Store.Funds() {
		if b.SettledFor(fund.ID).IsZero() && b.PendingFor(fund.ID).IsZero() {
			continue
		}
		t.Row(fund.Name,
			formatAmount(b.SettledFor(fund.ID), cur),
			formatAmount(b.PendingFor(fund.ID), cur),
			formatAmount(b.TotalFor(fund.ID), cur))
	}
	t.Row("Total", formatAmount(b.SettledTotal(), cur), formatAmount(b.PendingTotal(), cur), formatAmount(b.Total(), cur))
	return t
}

type serveCmd struct {
	s    *session
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve balances over HTTP" }
func (*serveCmd) Usage() string {
	return `fundledger serve [-addr host:port]

  Serves read-only balance queries and a server-sent event stream of ledger
  changes. With tls_domain configured, certificates come from Let's Encrypt.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address. Overrides http_addr from the config.")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.s.run(ctx, func(ctx context.Context, app *internal.App) error {
		if c.addr != "" {
			app.Config.HTTPAddr = c.addr
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := app.Serve(ctx); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
}

type exportCmd struct {
	s    *session
	date string
	dir  string
	name string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write every account and fund balance to a JSON report" }
func (*exportCmd) Usage() string {
	return `fundledger export [-date YYYY-MM-DD] [-dir <dir>] [-name <name>]

  Writes <dir>/<name>.json. The directory defaults to FUNDLEDGER_REPORT_DIR
  or ./reports, the name to the report date.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Balance date. Defaults to today.")
	f.StringVar(&c.dir, "dir", "", "Report directory.")
	f.StringVar(&c.name, "name", "", "Report name.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	on, err := parseDate(c.date)
	if err != nil {
		return usageError("%v", err)
	}
	name := c.name
	if name == "" {
		name = "balances-" + on.String()
	}

	return c.s.run(ctx, func(ctx context.Context, app *internal.App) error {
		report, err := buildReport(app, on)
		if err != nil {
			return err
		}
		store, err := reports.NewStore(c.dir)
		if err != nil {
			return err
		}
		path, err := store.Save(name, report)
		if err != nil {
			return err
		}
		c.s.printf("report written to %s\n", path)
		return nil
	})
}

func buildReport(app *internal.App, on date.Date) (reports.Report, error) {
	r := reports.Report{
		GeneratedAt: time.Now().UTC(),
		Date:        on,
		Currency:    app.Config.Currency,
	}
	for _, account := range app.Store.Accounts() {
		if account.AddedDate().After(on) {
			continue
		}
		b, err := app.Balances.BalanceAsOfDate(account.ID, on)
		if err != nil {
			return reports.Report{}, err
		}
		r.Accounts = append(r.Accounts, reports.AccountReport{Name: account.Name, Type: account.Type, Balance: b})
	}
	for _, fund := range app.Store.Funds() {
		fb, err := app.Balances.FundBalanceAsOfDate(fund.ID, on)
		if err != nil {
			return reports.Report{}, err
		}
		r.Funds = append(r.Funds, reports.FundReport{Name: fund.Name, Settled: fb.Settled, Pending: fb.Pending})
	}
	return r, nil
}
