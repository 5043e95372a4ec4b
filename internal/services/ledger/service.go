// Package ledger implements every write to the ledger: funds, accounts,
// accounting periods and balance events. Each write is validated in full
// before a single batch is committed.
package ledger

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
	"github.com/vadiminshakov/fundledger/internal/events"
)

type repository interface {
	Fund(id domain.FundID) (domain.Fund, error)
	FundByName(name string) (domain.Fund, bool)
	Account(id domain.AccountID) (domain.Account, error)
	AccountByName(name string) (domain.Account, bool)
	Accounts() []domain.Account
	Period(id domain.PeriodID) (domain.AccountingPeriod, error)
	PeriodByMonth(m date.Month) (domain.AccountingPeriod, bool)
	Periods() []domain.AccountingPeriod
	EventsOnDate(d date.Date) []domain.BalanceEvent
	EventsInPeriod(id domain.PeriodID) []domain.BalanceEvent
	AccountEvents(account domain.AccountID, r date.Range) []domain.BalanceEvent
	Transaction(id domain.TransactionID) (domain.Transaction, error)
	Commit(ctx context.Context, batch domain.Batch) error
}

type balances interface {
	BalanceAsOfDate(id domain.AccountID, d date.Date) (domain.AccountBalance, error)
	EndingBalance(id domain.AccountID, period domain.PeriodID) (domain.AccountBalance, error)
}

type notifier interface {
	Publish(n events.Notification)
}

// Service performs validated ledger writes. Callers must not run writes
// concurrently; reads through the balance service are safe alongside.
type Service struct {
	repo     repository
	balances balances
	notifier notifier
	logger   *zap.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithNotifier publishes a notification after every successful commit.
func WithNotifier(n notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// NewService wires the write service.
func NewService(repo repository, balances balances, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{repo: repo, balances: balances, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) publish(n events.Notification) {
	if s.notifier != nil {
		s.notifier.Publish(n)
	}
}

// CreateFund adds a fund with a unique, non-empty name.
func (s *Service) CreateFund(ctx context.Context, name string) (domain.Fund, error) {
	fund, err := domain.NewFund(name)
	if err != nil {
		return domain.Fund{}, err
	}
	if _, exists := s.repo.FundByName(fund.Name); exists {
		return domain.Fund{}, domain.Structuralf("fund %q already exists", fund.Name)
	}

	if err := s.repo.Commit(ctx, domain.Batch{Funds: []domain.Fund{fund}}); err != nil {
		return domain.Fund{}, err
	}

	s.logger.Info("fund created", zap.String("fund", fund.Name), zap.String("id", string(fund.ID)))
	s.publish(events.Notification{Kind: events.KindFundCreated})
	return fund, nil
}

// CreateAccountRequest describes a new account and its starting balance.
type CreateAccountRequest struct {
	Name   string
	Type   domain.AccountType
	Period domain.PeriodID
	Date   date.Date
	Funds  []domain.FundAmount
}

// CreateAccount adds an account together with its AccountAdded event.
func (s *Service) CreateAccount(ctx context.Context, req CreateAccountRequest) (domain.Account, error) {
	var problems domain.Problems

	account, err := domain.NewAccount(req.Name, req.Type, req.Period, req.Date, req.Funds)
	problems.Add(err)
	if name := strings.TrimSpace(req.Name); name != "" {
		if _, exists := s.repo.AccountByName(name); exists {
			problems.Addf(domain.ErrStructural, "account %q already exists", name)
		}
	}
	problems.Add(s.checkFunds(req.Funds))
	_, err = s.checkFiling(req.Period, req.Date)
	problems.Add(err)
	if err := problems.Err(); err != nil {
		return domain.Account{}, err
	}

	account.Added.Sequence = domain.NextSequence(s.repo.EventsOnDate(req.Date))
	batch := domain.Batch{
		Accounts: []domain.Account{account},
		Events:   []domain.BalanceEvent{account.Added},
	}
	if err := s.repo.Commit(ctx, batch); err != nil {
		return domain.Account{}, err
	}

	s.logger.Info("account created",
		zap.String("account", account.Name),
		zap.String("type", account.Type.String()),
		zap.String("date", req.Date.String()))
	s.publish(events.Notification{
		Kind:    events.KindAccountCreated,
		Account: string(account.ID),
		Period:  string(req.Period),
		Event:   string(account.Added.ID),
		Date:    req.Date.String(),
	})
	return account, nil
}

func (s *Service) checkFunds(amounts []domain.FundAmount) error {
	var problems domain.Problems
	for _, fa := range amounts {
		if fa.Fund == "" {
			continue
		}
		if _, err := s.repo.Fund(fa.Fund); err != nil {
			problems.Addf(domain.ErrStructural, "unknown fund %s", fa.Fund)
		}
	}
	return problems.Err()
}

func (s *Service) checkFund(id domain.FundID) error {
	if _, err := s.repo.Fund(id); err != nil {
		return domain.Structuralf("unknown fund %s", id)
	}
	return nil
}
