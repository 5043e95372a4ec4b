package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/fundledger/internal"
	"github.com/vadiminshakov/fundledger/internal/domain"
	"github.com/vadiminshakov/fundledger/internal/services/ledger"
)

type changeCmd struct {
	s       *session
	account string
	period  string
	date    string
	fund    string
	amount  string
}

func (*changeCmd) Name() string     { return "change" }
func (*changeCmd) Synopsis() string { return "record a change in value of one fund" }
func (*changeCmd) Usage() string {
	return `fundledger change -account <name> -fund <name> -amount <signed amount> [-date YYYY-MM-DD] [-period YYYY-MM]

  Records interest, fees or market moves. Rejected if any balance, now or
  later, would go negative.
`
}

func (c *changeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account name.")
	f.StringVar(&c.period, "period", "", "Accounting period to file under. Defaults to the month of -date.")
	f.StringVar(&c.date, "date", "", "Event date. Defaults to today.")
	f.StringVar(&c.fund, "fund", "", "Fund name.")
	f.StringVar(&c.amount, "amount", "", "Signed amount.")
}

func (c *changeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		return usageError("-amount: %v", err)
	}
	on, err := parseDate(c.date)
	if err != nil {
		return usageError("%v", err)
	}
	return c.s.run(ctx, func(ctx context.Context, app *internal.App) error {
		account, err := lookupAccount(app, c.account)
		if err != nil {
			return err
		}
		fund, err := lookupFund(app, c.fund)
		if err != nil {
			return err
		}
		period, err := lookupPeriod(app, c.period, on)
		if err != nil {
			return err
		}
		e, err := app.Ledger.AddChangeInValue(ctx, ledger.ChangeInValueRequest{
			Account: account.ID,
			Period:  period.ID,
			Date:    on,
			Fund:    fund.ID,
			Amount:  amount,
		})
		if err != nil {
			return err
		}
		c.s.printf("%s\n", e)
		return nil
	})
}

type convertCmd struct {
	s       *session
	account string
	period  string
	date    string
	from    string
	to      string
	amount  string
}

func (*convertCmd) Name() string     { return "convert" }
func (*convertCmd) Synopsis() string { return "move an amount between two funds of one account" }
func (*convertCmd) Usage() string {
	return `fundledger convert -account <name> -from <fund> -to <fund> -amount <amount> [-date YYYY-MM-DD] [-period YYYY-MM]
`
}

func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account name.")
	f.StringVar(&c.period, "period", "", "Accounting period to file under. Defaults to the month of -date.")
	f.StringVar(&c.date, "date", "", "Event date. Defaults to today.")
	f.StringVar(&c.from, "from", "", "Fund the amount leaves.")
	f.StringVar(&c.to, "to", "", "Fund the amount enters.")
	f.StringVar(&c.amount, "amount", "", "Positive amount.")
}

func (c *convertCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		return usageError("-amount: %v", err)
	}
	on, err := parseDate(c.date)
	if err != nil {
		return usageError("%v", err)
	}
	return c.s.run(ctx, func(ctx context.Context, app *internal.App) error {
		account, err := lookupAccount(app, c.account)
		if err != nil {
			return err
		}
		from, err := lookupFund(app, c.from)
		if err != nil {
			return err
		}
		to, err := lookupFund(app, c.to)
		if err != nil {
			return err
		}
		period, err := lookupPeriod(app, c.period, on)
		if err != nil {
			return err
		}
		e, err := app.Ledger.AddFundConversion(ctx, ledger.FundConversionRequest{
			Account: account.ID,
			Period:  period.ID,
			Date:    on,
			From:    from.ID,
			To:      to.ID,
			Amount:  amount,
		})
		if err != nil {
			return err
		}
		c.s.printf("%s\n", e)
		return nil
	})
}

type txCmd struct {
	s       *session
	period  string
	date    string
	debit   string
	credit  string
	amounts string
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "record a pending transaction" }
func (*txCmd) Usage() string {
	return `fundledger tx [-debit <account>] [-credit <account>] -amounts <fund>=<amount>,... [-date YYYY-MM-DD] [-period YYYY-MM]

  Records a transaction as a pending change on each given side. At least one
  side is required. Settle each side later with "post".
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", "", "Accounting period to file under. Defaults to the month of -date.")
	f.StringVar(&c.date, "date", "", "Transaction date. Defaults to today.")
	f.StringVar(&c.debit, "debit", "", "Debit account name.")
	f.StringVar(&c.credit, "credit", "", "Credit account name.")
	f.StringVar(&c.amounts, "amounts", "", "Amount per fund, e.g. Groceries=80.")
}

func (c *txCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.debit == "" && c.credit == "" {
		return usageError("at least one of -debit and -credit is required")
	}
	on, err := parseDate(c.date)
	if err != nil {
		return usageError("%v", err)
	}
	return c.s.run(ctx, func(ctx context.Context, app *internal.App) error {
		req := ledger.TransactionRequest{Date: on}
		for _, side := range []struct {
			name string
			dst  **domain.AccountID
		}{{c.debit, &req.Debit}, {c.credit, &req.Credit}} {
			if side.name == "" {
				continue
			}
			account, err := lookupAccount(app, side.name)
			if err != nil {
				return err
			}
			*side.dst = &account.ID
		}
		period, err := lookupPeriod(app, c.period, on)
		if err != nil {
			return err
		}
		req.Period = period.ID
		if req.Amounts, err = parseFundAmounts(app, c.amounts); err != nil {
			return err
		}

		tx, err := app.Ledger.AddTransaction(ctx, req)
		if err != nil {
			return err
		}
		c.s.printf("transaction %s added\n", tx.ID)
		return nil
	})
}

type postCmd struct {
	s    *session
	tx   string
	side string
	date string
}

func (*postCmd) Name() string     { return "post" }
func (*postCmd) Synopsis() string { return "settle one side of a transaction" }
func (*postCmd) Usage() string {
	return `fundledger post -tx <id> -side debit|credit [-date YYYY-MM-DD]
`
}

func (c *postCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tx, "tx", "", "Transaction id printed by \"tx\".")
	f.StringVar(&c.side, "side", string(domain.SideDebit), "Side to post.")
	f.StringVar(&c.date, "date", "", "Posting date. Defaults to today.")
}

func (c *postCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	side := domain.TransactionSide(c.side)
	if !side.IsValid() {
		return usageError("-side must be %s or %s", domain.SideDebit, domain.SideCredit)
	}
	if c.tx == "" {
		return usageError("-tx is required")
	}
	on, err := parseDate(c.date)
	if err != nil {
		return usageError("%v", err)
	}
	return c.s.run(ctx, func(ctx context.Context, app *internal.App) error {
		tx, err := app.Ledger.PostTransaction(ctx, domain.TransactionID(c.tx), side, on)
		if err != nil {
			return err
		}
		state := "partially posted"
		if tx.FullyPosted() {
			state = "fully posted"
		}
		c.s.printf("transaction %s %s\n", tx.ID, state)
		return nil
	})
}

type importCmd struct {
	s    *session
	file string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import funds, periods, accounts and events from YAML" }
func (*importCmd) Usage() string {
	return `fundledger import -f <file.yaml>

  Applies the document in order and stops at the first rejected entry.
  Entries before it stay recorded.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "YAML document to import.")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.file == "" {
		return usageError("-f is required")
	}
	return c.s.run(ctx, func(ctx context.Context, app *internal.App) error {
		sum, err := app.Importer.ImportFile(ctx, c.file)
		c.s.printf("funds: %d, periods: %d (closed %d), accounts: %d, events: %d, transactions: %d\n",
			sum.Funds, sum.Periods, sum.Closed, sum.Accounts, sum.Events, sum.Transactions)
		return err
	})
}
