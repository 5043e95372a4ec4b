package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/vadiminshakov/fundledger/internal"
	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
	"github.com/vadiminshakov/fundledger/internal/services/ledger"
	"github.com/vadiminshakov/fundledger/internal/setup"
)

type initCmd struct {
	output string
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create a configuration file interactively" }
func (*initCmd) Usage() string {
	return `fundledger init [-o <file>]

  Runs the configuration wizard and writes the result as YAML.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "config.yaml", "Where to write the configuration.")
}

func (c *initCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if err := setup.RunTUI(c.output); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type fundCmd struct {
	s    *session
	name string
}

func (*fundCmd) Name() string     { return "fund" }
func (*fundCmd) Synopsis() string { return "create a fund" }
func (*fundCmd) Usage() string {
	return `fundledger fund -name <name>
`
}

func (c *fundCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Fund name, unique.")
}

func (c *fundCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if strings.TrimSpace(c.name) == "" {
		return usageError("-name is required")
	}
	return c.s.run(ctx, func(ctx context.Context, app *internal.App) error {
		fund, err := app.Ledger.CreateFund(ctx, c.name)
		if err != nil {
			return err
		}
		c.s.printf("fund %s created (%s)\n", fund.Name, fund.ID)
		return nil
	})
}

type accountCmd struct {
	s      *session
	name   string
	typ    string
	period string
	date   string
	funds  string
}

func (*accountCmd) Name() string     { return "account" }
func (*accountCmd) Synopsis() string { return "add an account with its starting balance" }
func (*accountCmd) Usage() string {
	return `fundledger account -name <name> [-type standard|debt|investment] [-period YYYY-MM] [-date YYYY-MM-DD] [-funds <fund>=<amount>,...]

  Adds an account. The starting balance is filed under -period, which defaults
  to the month of -date.
`
}

func (c *accountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Account name, unique.")
	f.StringVar(&c.typ, "type", string(domain.AccountTypeStandard), "Account type.")
	f.StringVar(&c.period, "period", "", "Accounting period the account is added in.")
	f.StringVar(&c.date, "date", "", "Date the account is added. Defaults to today.")
	f.StringVar(&c.funds, "funds", "", "Starting balance per fund, e.g. Groceries=600,Savings=900.")
}

func (c *accountCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	typ, err := domain.ParseAccountType(c.typ)
	if err != nil {
		return usageError("%v", err)
	}
	on, err := parseDate(c.date)
	if err != nil {
		return usageError("%v", err)
	}
	return c.s.run(ctx, func(ctx context.Context, app *internal.App) error {
		period, err := lookupPeriod(app, c.period, on)
		if err != nil {
			return err
		}
		funds, err := parseFundAmounts(app, c.funds)
		if err != nil {
			return err
		}
		account, err := app.Ledger.CreateAccount(ctx, ledger.CreateAccountRequest{
			Name:   c.name,
			Type:   typ,
			Period: period.ID,
			Date:   on,
			Funds:  funds,
		})
		if err != nil {
			return err
		}
		c.s.printf("account %s created (%s)\n", account.Name, account.ID)
		return nil
	})
}

type periodCmd struct {
	s     *session
	month string
}

func (*periodCmd) Name() string     { return "period" }
func (*periodCmd) Synopsis() string { return "open the accounting period for a month" }
func (*periodCmd) Usage() string {
	return `fundledger period -month YYYY-MM

  Periods form an unbroken chain: the first may be any month, every later one
  must follow the latest existing period.
`
}

func (c *periodCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Month of the new period.")
}

func (c *periodCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	m, err := date.ParseMonth(c.month)
	if err != nil {
		return usageError("%v", err)
	}
	return c.s.run(ctx, func(ctx context.Context, app *internal.App) error {
		period, err := app.Ledger.CreateAccountingPeriod(ctx, m.Year, m.Month)
		if err != nil {
			return err
		}
		c.s.printf("period %s opened (%s)\n", period.Month, period.ID)
		return nil
	})
}

type closeCmd struct {
	s     *session
	month string
}

func (*closeCmd) Name() string     { return "close" }
func (*closeCmd) Synopsis() string { return "close the earliest open accounting period" }
func (*closeCmd) Usage() string {
	return `fundledger close -month YYYY-MM

  Closes a period and records each account's ending balance as the next
  period's checkpoint. Only the earliest open period can be closed.
`
}

func (c *closeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Month of the period to close.")
}

func (c *closeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.month == "" {
		return usageError("-month is required")
	}
	return c.s.run(ctx, func(ctx context.Context, app *internal.App) error {
		period, err := lookupPeriod(app, c.month, date.Date{})
		if err != nil {
			return err
		}
		closed, err := app.Ledger.CloseAccountingPeriod(ctx, period.ID)
		if err != nil {
			return err
		}
		c.s.printf("period %s closed\n", closed.Month)
		return nil
	})
}
