// Package balance answers balance queries: as of a date, as of an event, and
// per accounting period. It only reads.
package balance

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
)

type repository interface {
	Account(id domain.AccountID) (domain.Account, error)
	Accounts() []domain.Account
	Period(id domain.PeriodID) (domain.AccountingPeriod, error)
	PeriodByMonth(m date.Month) (domain.AccountingPeriod, bool)
	Event(id domain.EventID) (domain.BalanceEvent, error)
	EventsInPeriod(id domain.PeriodID) []domain.BalanceEvent
	AccountEvents(account domain.AccountID, r date.Range) []domain.BalanceEvent
	Checkpoint(account domain.AccountID, period domain.PeriodID) (domain.Checkpoint, bool)
	Checkpoints(account domain.AccountID) []domain.Checkpoint
}

// Service computes account balances from checkpoints and balance events.
type Service struct {
	repo   repository
	logger *zap.Logger
}

// NewService creates a balance service over the given repository.
func NewService(repo repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// EventBalance is the account balance right after an event.
type EventBalance struct {
	Event   domain.BalanceEvent   `json:"event"`
	Balance domain.AccountBalance `json:"balance"`
}

// DateBalance is the account balance at the end of a day.
type DateBalance struct {
	Date    date.Date             `json:"date"`
	Balance domain.AccountBalance `json:"balance"`
}

// PeriodBalance is an account's balance at both ends of an accounting period.
type PeriodBalance struct {
	Period   domain.AccountingPeriod `json:"period"`
	Starting domain.AccountBalance   `json:"starting"`
	Ending   domain.AccountBalance   `json:"ending"`
}

// FundBalance is one fund summed over every account. Debt accounts count negatively.
type FundBalance struct {
	Fund    domain.FundID   `json:"fund"`
	Date    date.Date       `json:"date"`
	Settled decimal.Decimal `json:"settled"`
	Pending decimal.Decimal `json:"pending"`
}

// BalanceAsOfDate returns the account balance at the end of day d.
//
// The nearest checkpoint whose boundary is on or before d is the starting
// point. A checkpoint sums events by filing period, so events of the previous
// period dated on or after the boundary are reversed out and events of the
// checkpoint's own period dated before the boundary are added in, before
// replaying everything dated from the boundary through d.
func (s *Service) BalanceAsOfDate(id domain.AccountID, d date.Date) (domain.AccountBalance, error) {
	account, err := s.repo.Account(id)
	if err != nil {
		return domain.AccountBalance{}, err
	}
	return s.balanceAsOfDate(account, d)
}

func (s *Service) balanceAsOfDate(account domain.Account, d date.Date) (domain.AccountBalance, error) {
	b := domain.EmptyBalance(account.ID, account.Type)
	if d.Before(account.AddedDate()) {
		return b, nil
	}

	cp, ok := s.latestCheckpoint(account.ID, d)
	if !ok {
		for _, e := range s.repo.AccountEvents(account.ID, date.Between(account.AddedDate(), d)) {
			b = b.Apply(e)
		}
		return b, nil
	}

	b, err := cp.Balance(account.Type)
	if err != nil {
		return domain.AccountBalance{}, errors.Wrapf(err, "load checkpoint of %s at %s", account.Name, cp.Month)
	}
	boundary := cp.Boundary()

	if prev, ok := s.repo.PeriodByMonth(cp.Month.Prev()); ok {
		for _, e := range s.repo.EventsInPeriod(prev.ID) {
			if e.Account == account.ID && !e.Date.Before(boundary) {
				b = b.Reverse(e)
			}
		}
	}
	for _, e := range s.repo.EventsInPeriod(cp.Period) {
		if e.Account == account.ID && e.Date.Before(boundary) {
			b = b.Apply(e)
		}
	}
	for _, e := range s.repo.AccountEvents(account.ID, date.Between(boundary, d)) {
		b = b.Apply(e)
	}

	s.logger.Debug("balance from checkpoint",
		zap.String("account", account.Name),
		zap.String("checkpoint", cp.Month.String()),
		zap.String("date", d.String()))
	return b, nil
}

func (s *Service) latestCheckpoint(account domain.AccountID, d date.Date) (domain.Checkpoint, bool) {
	checkpoints := s.repo.Checkpoints(account)
	for i := len(checkpoints) - 1; i >= 0; i-- {
		if !checkpoints[i].Boundary().After(d) {
			return checkpoints[i], true
		}
	}
	return domain.Checkpoint{}, false
}

// BalanceAsOfEvent returns the balance immediately after the event.
func (s *Service) BalanceAsOfEvent(id domain.EventID) (domain.AccountBalance, error) {
	e, err := s.repo.Event(id)
	if err != nil {
		return domain.AccountBalance{}, err
	}
	return s.balanceAfter(e)
}

func (s *Service) balanceAfter(target domain.BalanceEvent) (domain.AccountBalance, error) {
	b, err := s.BalanceAsOfDate(target.Account, target.Date)
	if err != nil {
		return domain.AccountBalance{}, err
	}
	sameDay := s.repo.AccountEvents(target.Account, date.Between(target.Date, target.Date))
	for i := len(sameDay) - 1; i >= 0; i-- {
		if target.Before(sameDay[i]) {
			b = b.Reverse(sameDay[i])
		}
	}
	return b, nil
}

// BalancesByEvent returns the running balance after each of the account's
// events dated inside r.
func (s *Service) BalancesByEvent(id domain.AccountID, r date.Range) ([]EventBalance, error) {
	if _, err := s.repo.Account(id); err != nil {
		return nil, err
	}
	events := s.repo.AccountEvents(id, r)
	if len(events) == 0 {
		return nil, nil
	}

	b, err := s.balanceAfter(events[0])
	if err != nil {
		return nil, err
	}
	out := make([]EventBalance, 0, len(events))
	out = append(out, EventBalance{Event: events[0], Balance: b})
	for _, e := range events[1:] {
		b = b.Apply(e)
		out = append(out, EventBalance{Event: e, Balance: b})
	}
	return out, nil
}

// BalancesByDateRange returns the end-of-day balance for every day in a bounded range.
func (s *Service) BalancesByDateRange(id domain.AccountID, r date.Range) ([]DateBalance, error) {
	account, err := s.repo.Account(id)
	if err != nil {
		return nil, err
	}
	if r.From.IsZero() || r.To.IsZero() {
		return nil, domain.Structuralf("date range %s must be bounded", r)
	}

	var (
		out   []DateBalance
		b     domain.AccountBalance
		first = true
	)
	for d := range r.Days() {
		if first {
			if b, err = s.balanceAsOfDate(account, d); err != nil {
				return nil, err
			}
			first = false
		} else {
			for _, e := range s.repo.AccountEvents(id, date.Between(d, d)) {
				b = b.Apply(e)
			}
		}
		out = append(out, DateBalance{Date: d, Balance: b})
	}
	return out, nil
}

// BalanceForPeriod returns the account's balance at the start and end of a period.
// Balances here follow filing: a period's ending balance is its starting
// balance plus every event filed under it, whatever the event dates.
func (s *Service) BalanceForPeriod(id domain.AccountID, periodID domain.PeriodID) (PeriodBalance, error) {
	account, err := s.repo.Account(id)
	if err != nil {
		return PeriodBalance{}, err
	}
	period, err := s.repo.Period(periodID)
	if err != nil {
		return PeriodBalance{}, err
	}

	starting, err := s.startingBalance(account, period)
	if err != nil {
		return PeriodBalance{}, err
	}

	ending, found, err := s.checkpointBalance(account, period.Month.Next())
	if err != nil {
		return PeriodBalance{}, err
	}
	if !found {
		ending = s.applyFiled(starting, period)
	}

	return PeriodBalance{Period: period, Starting: starting, Ending: ending}, nil
}

// EndingBalance is the balance an account carries out of a period.
func (s *Service) EndingBalance(id domain.AccountID, periodID domain.PeriodID) (domain.AccountBalance, error) {
	pb, err := s.BalanceForPeriod(id, periodID)
	if err != nil {
		return domain.AccountBalance{}, err
	}
	return pb.Ending, nil
}

// startingBalance walks back to the nearest period with a checkpoint (or the
// first period) and replays filed events forward.
func (s *Service) startingBalance(account domain.Account, period domain.AccountingPeriod) (domain.AccountBalance, error) {
	chain := []domain.AccountingPeriod{period}
	b := domain.EmptyBalance(account.ID, account.Type)
	for {
		current := chain[len(chain)-1]
		cp, found, err := s.checkpointBalance(account, current.Month)
		if err != nil {
			return domain.AccountBalance{}, err
		}
		if found {
			b = cp
			break
		}
		prev, ok := s.repo.PeriodByMonth(current.Month.Prev())
		if !ok {
			break
		}
		chain = append(chain, prev)
	}

	for i := len(chain) - 1; i > 0; i-- {
		b = s.applyFiled(b, chain[i])
	}
	return b, nil
}

func (s *Service) checkpointBalance(account domain.Account, m date.Month) (domain.AccountBalance, bool, error) {
	period, ok := s.repo.PeriodByMonth(m)
	if !ok {
		return domain.AccountBalance{}, false, nil
	}
	cp, ok := s.repo.Checkpoint(account.ID, period.ID)
	if !ok {
		return domain.AccountBalance{}, false, nil
	}
	b, err := cp.Balance(account.Type)
	if err != nil {
		return domain.AccountBalance{}, false, errors.Wrapf(err, "load checkpoint of %s at %s", account.Name, m)
	}
	return b, true, nil
}

func (s *Service) applyFiled(b domain.AccountBalance, period domain.AccountingPeriod) domain.AccountBalance {
	for _, e := range s.repo.EventsInPeriod(period.ID) {
		b = b.Apply(e)
	}
	return b
}

// FundBalanceAsOfDate sums one fund across all accounts at the end of day d.
func (s *Service) FundBalanceAsOfDate(fund domain.FundID, d date.Date) (FundBalance, error) {
	out := FundBalance{Fund: fund, Date: d, Settled: decimal.Zero, Pending: decimal.Zero}
	for _, account := range s.repo.Accounts() {
		b, err := s.balanceAsOfDate(account, d)
		if err != nil {
			return FundBalance{}, err
		}
		settled, pending := b.SettledFor(fund), b.PendingFor(fund)
		if account.Type == domain.AccountTypeDebt {
			settled, pending = settled.Neg(), pending.Neg()
		}
		out.Settled = out.Settled.Add(settled)
		out.Pending = out.Pending.Add(pending)
	}
	return out, nil
}
