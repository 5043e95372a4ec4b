// Package importer loads a whole ledger history from a YAML document by
// replaying it through the ledger service, so imported data passes the same
// validation as interactive writes.
package importer

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
	"github.com/vadiminshakov/fundledger/internal/services/ledger"
)

type writer interface {
	CreateFund(ctx context.Context, name string) (domain.Fund, error)
	CreateAccount(ctx context.Context, req ledger.CreateAccountRequest) (domain.Account, error)
	CreateAccountingPeriod(ctx context.Context, year int, month time.Month) (domain.AccountingPeriod, error)
	CloseAccountingPeriod(ctx context.Context, id domain.PeriodID) (domain.AccountingPeriod, error)
	AddChangeInValue(ctx context.Context, req ledger.ChangeInValueRequest) (domain.BalanceEvent, error)
	AddFundConversion(ctx context.Context, req ledger.FundConversionRequest) (domain.BalanceEvent, error)
	AddTransaction(ctx context.Context, req ledger.TransactionRequest) (domain.Transaction, error)
	PostTransaction(ctx context.Context, id domain.TransactionID, side domain.TransactionSide, on date.Date) (domain.Transaction, error)
}

type lookup interface {
	FundByName(name string) (domain.Fund, bool)
	AccountByName(name string) (domain.Account, bool)
	PeriodByMonth(m date.Month) (domain.AccountingPeriod, bool)
}

// Document is the import file layout.
type Document struct {
	Funds   []string         `yaml:"funds"`
	Periods []PeriodDocument `yaml:"periods"`
}

// PeriodDocument is one accounting month with the accounts founded in it and
// the events filed under it.
type PeriodDocument struct {
	Month    string            `yaml:"month"`
	Accounts []AccountDocument `yaml:"accounts"`
	Events   []EventDocument   `yaml:"events"`
	Close    bool              `yaml:"close"`
}

type AccountDocument struct {
	Name  string            `yaml:"name"`
	Type  string            `yaml:"type"`
	Date  string            `yaml:"date"`
	Funds map[string]string `yaml:"funds"`
}

// EventDocument is a change, convert or transaction entry. Fields that don't
// apply to the type are ignored.
type EventDocument struct {
	Type    string            `yaml:"type"`
	Date    string            `yaml:"date"`
	Account string            `yaml:"account"`
	Fund    string            `yaml:"fund"`
	From    string            `yaml:"from"`
	To      string            `yaml:"to"`
	Amount  string            `yaml:"amount"`
	Debit   string            `yaml:"debit"`
	Credit  string            `yaml:"credit"`
	Amounts map[string]string `yaml:"amounts"`
	Posted  map[string]string `yaml:"posted"`
}

// Summary counts what an import created.
type Summary struct {
	Funds        int
	Periods      int
	Accounts     int
	Events       int
	Transactions int
	Closed       int
}

// Importer drives ledger writes from a Document.
type Importer struct {
	ledger writer
	lookup lookup
	logger *zap.Logger
}

// New creates an importer.
func New(ledger writer, lookup lookup, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{ledger: ledger, lookup: lookup, logger: logger}
}

// ImportFile reads and imports a YAML file.
func (i *Importer) ImportFile(ctx context.Context, path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, errors.Wrap(err, "open import file")
	}
	defer f.Close()

	return i.Import(ctx, f)
}

// Import decodes a document from r and applies it. It stops at the first
// failing entry; everything before it stays committed.
func (i *Importer) Import(ctx context.Context, r io.Reader) (Summary, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Summary{}, errors.Wrap(err, "decode import document")
	}
	return i.Apply(ctx, doc)
}

// Apply imports an already decoded document.
func (i *Importer) Apply(ctx context.Context, doc Document) (Summary, error) {
	var sum Summary

	for _, name := range doc.Funds {
		if _, exists := i.lookup.FundByName(name); exists {
			continue
		}
		if _, err := i.ledger.CreateFund(ctx, name); err != nil {
			return sum, errors.Wrapf(err, "fund %q", name)
		}
		sum.Funds++
	}

	for _, pd := range doc.Periods {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := i.applyPeriod(ctx, pd, &sum); err != nil {
			return sum, errors.Wrapf(err, "period %s", pd.Month)
		}
	}

	i.logger.Info("import finished",
		zap.Int("funds", sum.Funds),
		zap.Int("periods", sum.Periods),
		zap.Int("accounts", sum.Accounts),
		zap.Int("events", sum.Events),
		zap.Int("closed", sum.Closed))
	return sum, nil
}

func (i *Importer) applyPeriod(ctx context.Context, pd PeriodDocument, sum *Summary) error {
	month, err := date.ParseMonth(pd.Month)
	if err != nil {
		return err
	}
	period, exists := i.lookup.PeriodByMonth(month)
	if !exists {
		if period, err = i.ledger.CreateAccountingPeriod(ctx, month.Year, month.Month); err != nil {
			return err
		}
		sum.Periods++
	}

	for _, ad := range pd.Accounts {
		if err := i.applyAccount(ctx, period, ad); err != nil {
			return errors.Wrapf(err, "account %q", ad.Name)
		}
		sum.Accounts++
	}

	for n, ed := range pd.Events {
		if err := i.applyEvent(ctx, period, ed, sum); err != nil {
			return errors.Wrapf(err, "event %d (%s on %s)", n+1, ed.Type, ed.Date)
		}
	}

	if pd.Close {
		if _, err := i.ledger.CloseAccountingPeriod(ctx, period.ID); err != nil {
			return err
		}
		sum.Closed++
	}
	return nil
}

func (i *Importer) applyAccount(ctx context.Context, period domain.AccountingPeriod, ad AccountDocument) error {
	typ, err := domain.ParseAccountType(ad.Type)
	if err != nil {
		return err
	}
	on, err := date.Parse(ad.Date)
	if err != nil {
		return err
	}
	funds, err := i.fundAmounts(ad.Funds)
	if err != nil {
		return err
	}

	_, err = i.ledger.CreateAccount(ctx, ledger.CreateAccountRequest{
		Name:   ad.Name,
		Type:   typ,
		Period: period.ID,
		Date:   on,
		Funds:  funds,
	})
	return err
}

func (i *Importer) applyEvent(ctx context.Context, period domain.AccountingPeriod, ed EventDocument, sum *Summary) error {
	on, err := date.Parse(ed.Date)
	if err != nil {
		return err
	}

	switch ed.Type {
	case "change":
		account, err := i.account(ed.Account)
		if err != nil {
			return err
		}
		fund, err := i.fund(ed.Fund)
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(ed.Amount)
		if err != nil {
			return errors.Wrap(err, "amount")
		}
		if _, err := i.ledger.AddChangeInValue(ctx, ledger.ChangeInValueRequest{
			Account: account.ID, Period: period.ID, Date: on, Fund: fund.ID, Amount: amount,
		}); err != nil {
			return err
		}
		sum.Events++

	case "convert":
		account, err := i.account(ed.Account)
		if err != nil {
			return err
		}
		from, err := i.fund(ed.From)
		if err != nil {
			return err
		}
		to, err := i.fund(ed.To)
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(ed.Amount)
		if err != nil {
			return errors.Wrap(err, "amount")
		}
		if _, err := i.ledger.AddFundConversion(ctx, ledger.FundConversionRequest{
			Account: account.ID, Period: period.ID, Date: on, From: from.ID, To: to.ID, Amount: amount,
		}); err != nil {
			return err
		}
		sum.Events++

	case "transaction":
		return i.applyTransaction(ctx, period, on, ed, sum)

	default:
		return domain.Structuralf("unknown event type %q", ed.Type)
	}
	return nil
}

func (i *Importer) applyTransaction(ctx context.Context, period domain.AccountingPeriod, on date.Date, ed EventDocument, sum *Summary) error {
	req := ledger.TransactionRequest{Period: period.ID, Date: on}
	if ed.Debit != "" {
		account, err := i.account(ed.Debit)
		if err != nil {
			return err
		}
		req.Debit = &account.ID
	}
	if ed.Credit != "" {
		account, err := i.account(ed.Credit)
		if err != nil {
			return err
		}
		req.Credit = &account.ID
	}
	amounts, err := i.fundAmounts(ed.Amounts)
	if err != nil {
		return err
	}
	req.Amounts = amounts

	tx, err := i.ledger.AddTransaction(ctx, req)
	if err != nil {
		return err
	}
	sum.Transactions++
	sum.Events += len(tx.Sides())

	for _, side := range tx.Sides() {
		raw, ok := ed.Posted[side.String()]
		if !ok {
			continue
		}
		postedOn, err := date.Parse(raw)
		if err != nil {
			return err
		}
		if _, err := i.ledger.PostTransaction(ctx, tx.ID, side, postedOn); err != nil {
			return errors.Wrapf(err, "post %s side", side)
		}
		sum.Events++
	}
	return nil
}

func (i *Importer) fundAmounts(raw map[string]string) ([]domain.FundAmount, error) {
	out := make([]domain.FundAmount, 0, len(raw))
	for name, value := range raw {
		fund, err := i.fund(name)
		if err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return nil, errors.Wrapf(err, "amount for fund %q", name)
		}
		out = append(out, domain.FundAmount{Fund: fund.ID, Amount: amount})
	}
	return out, nil
}

func (i *Importer) fund(name string) (domain.Fund, error) {
	fund, ok := i.lookup.FundByName(name)
	if !ok {
		return domain.Fund{}, domain.NotFoundf("fund %q", name)
	}
	return fund, nil
}

func (i *Importer) account(name string) (domain.Account, error) {
	account, ok := i.lookup.AccountByName(name)
	if !ok {
		return domain.Account{}, domain.NotFoundf("account %q", name)
	}
	return account, nil
}
