package ledger

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
	"github.com/vadiminshakov/fundledger/internal/events"
)

// checkFiling validates that an event dated d may be filed under the period.
func (s *Service) checkFiling(periodID domain.PeriodID, d date.Date) (domain.AccountingPeriod, error) {
	var problems domain.Problems

	period, err := s.repo.Period(periodID)
	if err != nil {
		problems.Addf(domain.ErrStructural, "accounting period %s does not exist", periodID)
	} else if !period.Open {
		problems.Addf(domain.ErrStructural, "accounting period %s is closed", period.Month)
	}

	if d.IsZero() {
		problems.Addf(domain.ErrStructural, "event date is required")
	} else if err == nil && !period.AcceptsDate(d) {
		problems.Addf(domain.ErrStructural, "event date %s is more than one month away from accounting period %s", d, period.Month)
	}
	return period, problems.Err()
}

// checkStructure runs the structural rules for an event on an existing account.
func (s *Service) checkStructure(account domain.Account, periodID domain.PeriodID, d date.Date) error {
	var problems domain.Problems
	period, err := s.checkFiling(periodID, d)
	problems.Add(err)
	problems.Add(s.checkAccountDates(account, period, d))
	return problems.Err()
}

// checkAccountDates rejects events dated or filed before the account was added.
func (s *Service) checkAccountDates(account domain.Account, period domain.AccountingPeriod, d date.Date) error {
	var problems domain.Problems
	if !d.IsZero() && d.Before(account.AddedDate()) {
		problems.Addf(domain.ErrStructural, "event date %s is before account %s was added on %s", d, account.Name, account.AddedDate())
	}
	if founding, err := s.repo.Period(account.Added.Period); err == nil && period.ID != "" && period.Month.Before(founding.Month) {
		problems.Addf(domain.ErrStructural, "accounting period %s is before account %s was added in %s", period.Month, account.Name, founding.Month)
	}
	return problems.Err()
}

// sequence assigns sequences to new events in order; events sharing a date
// are numbered consecutively after the highest existing sequence on it.
func (s *Service) sequence(candidates []domain.BalanceEvent) {
	next := make(map[date.Date]int)
	for i := range candidates {
		d := candidates[i].Date
		if _, ok := next[d]; !ok {
			next[d] = domain.NextSequence(s.repo.EventsOnDate(d))
		}
		candidates[i].Sequence = next[d]
		next[d]++
	}
}

// checkBalances runs the current-balance and forward-consistency checks for a
// sequenced candidate event. Nothing is written.
func (s *Service) checkBalances(account domain.Account, candidate domain.BalanceEvent) error {
	before, err := s.balances.BalanceAsOfDate(account.ID, candidate.Date)
	if err != nil {
		return err
	}
	sameDay := s.repo.AccountEvents(account.ID, date.Between(candidate.Date, candidate.Date))
	for i := len(sameDay) - 1; i >= 0; i-- {
		if !sameDay[i].Before(candidate) {
			before = before.Reverse(sameDay[i])
		}
	}

	if !before.CanApply(candidate) {
		return domain.Invariantf("%s would leave account %s with a negative balance on %s",
			candidate.Payload.Kind(), account.Name, candidate.Date)
	}

	running := before.Apply(candidate)
	for _, later := range s.repo.AccountEvents(account.ID, date.Since(candidate.Date)) {
		if !candidate.Before(later) {
			continue
		}
		if !running.CanApply(later) {
			return domain.Invariantf("%s on %s would make the later %s on %s leave account %s negative",
				candidate.Payload.Kind(), candidate.Date, later.Payload.Kind(), later.Date, account.Name)
		}
		running = running.Apply(later)
	}

	return s.checkPeriods(account, candidate)
}

// checkPeriods replays the account period by period, in filing order, from the
// candidate's period to the last one, so that every period ending balance stays valid.
func (s *Service) checkPeriods(account domain.Account, candidate domain.BalanceEvent) error {
	period, err := s.repo.Period(candidate.Period)
	if err != nil {
		return err
	}

	running := domain.EmptyBalance(account.ID, account.Type)
	if prev, ok := s.repo.PeriodByMonth(period.Month.Prev()); ok {
		if running, err = s.balances.EndingBalance(account.ID, prev.ID); err != nil {
			return err
		}
	}

	for current, ok := period, true; ok; current, ok = s.repo.PeriodByMonth(current.Month.Next()) {
		filed := accountEvents(s.repo.EventsInPeriod(current.ID), account.ID)
		if current.ID == period.ID {
			i, _ := slices.BinarySearchFunc(filed, candidate, domain.CompareEvents)
			filed = slices.Insert(filed, i, candidate)
		}
		for _, e := range filed {
			if !running.CanApply(e) {
				return domain.Invariantf("%s on %s would leave account %s negative within accounting period %s",
					candidate.Payload.Kind(), candidate.Date, account.Name, current.Month)
			}
			running = running.Apply(e)
		}
	}
	return nil
}

func accountEvents(all []domain.BalanceEvent, account domain.AccountID) []domain.BalanceEvent {
	out := make([]domain.BalanceEvent, 0, len(all))
	for _, e := range all {
		if e.Account == account {
			out = append(out, e)
		}
	}
	return out
}

// insert sequences, checks and commits new balance events along with any
// records they depend on.
func (s *Service) insert(ctx context.Context, candidates []domain.BalanceEvent, batch domain.Batch) ([]domain.BalanceEvent, error) {
	s.sequence(candidates)

	for _, candidate := range candidates {
		account, err := s.repo.Account(candidate.Account)
		if err != nil {
			return nil, err
		}
		if err := s.checkBalances(account, candidate); err != nil {
			s.logger.Info("balance event rejected",
				zap.String("account", account.Name),
				zap.String("kind", string(candidate.Payload.Kind())),
				zap.String("date", candidate.Date.String()),
				zap.Error(err))
			return nil, err
		}
	}

	batch.Events = append(batch.Events, candidates...)
	if err := s.repo.Commit(ctx, batch); err != nil {
		return nil, err
	}

	for _, e := range candidates {
		s.logger.Info("balance event added",
			zap.String("event", string(e.ID)),
			zap.String("kind", string(e.Payload.Kind())),
			zap.String("date", e.Date.String()),
			zap.Int("sequence", e.Sequence))
		s.publish(events.Notification{
			Kind:    events.KindEventAdded,
			Account: string(e.Account),
			Period:  string(e.Period),
			Event:   string(e.ID),
			Date:    e.Date.String(),
		})
	}
	return candidates, nil
}
