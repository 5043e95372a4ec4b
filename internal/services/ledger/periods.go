package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vadiminshakov/fundledger/internal/domain"
	"github.com/vadiminshakov/fundledger/internal/events"
)

// CreateAccountingPeriod opens the period for year/month. Periods are
// contiguous: unless none exist yet, the previous month must already have one.
// When the previous period is closed, every account gets a checkpoint at the
// start of the new period.
func (s *Service) CreateAccountingPeriod(ctx context.Context, year int, month time.Month) (domain.AccountingPeriod, error) {
	period, err := domain.NewAccountingPeriod(year, month)
	if err != nil {
		return domain.AccountingPeriod{}, err
	}

	var problems domain.Problems
	if _, exists := s.repo.PeriodByMonth(period.Month); exists {
		problems.Addf(domain.ErrStructural, "accounting period %s already exists", period.Month)
	}
	prev, hasPrev := s.repo.PeriodByMonth(period.Month.Prev())
	if !hasPrev && len(s.repo.Periods()) > 0 {
		problems.Addf(domain.ErrStructural, "accounting period %s must exist before %s", period.Month.Prev(), period.Month)
	}
	if err := problems.Err(); err != nil {
		return domain.AccountingPeriod{}, err
	}

	batch := domain.Batch{Periods: []domain.AccountingPeriod{period}}
	if hasPrev && !prev.Open {
		checkpoints, err := s.checkpoints(prev, period)
		if err != nil {
			return domain.AccountingPeriod{}, err
		}
		batch.Checkpoints = checkpoints
	}

	if err := s.repo.Commit(ctx, batch); err != nil {
		return domain.AccountingPeriod{}, err
	}

	s.logger.Info("accounting period created",
		zap.String("period", period.Month.String()),
		zap.Int("checkpoints", len(batch.Checkpoints)))
	s.publish(events.Notification{Kind: events.KindPeriodCreated, Period: string(period.ID)})
	return period, nil
}

// CloseAccountingPeriod closes the earliest open period once no account has a
// pending change left in it, and checkpoints every account at the start of the
// following period if that period exists.
func (s *Service) CloseAccountingPeriod(ctx context.Context, id domain.PeriodID) (domain.AccountingPeriod, error) {
	period, err := s.repo.Period(id)
	if err != nil {
		return domain.AccountingPeriod{}, err
	}

	var problems domain.Problems
	closed, err := period.Close()
	problems.Add(err)
	for _, p := range s.repo.Periods() {
		if p.Open && p.Month.Before(period.Month) {
			problems.Addf(domain.ErrLifecycle, "accounting period %s must be closed before %s", p.Month, period.Month)
			break
		}
	}
	for _, account := range s.repo.Accounts() {
		ending, err := s.balances.EndingBalance(account.ID, period.ID)
		if err != nil {
			return domain.AccountingPeriod{}, err
		}
		if ending.HasPending() {
			problems.Addf(domain.ErrLifecycle, "account %s has unposted transactions in %s", account.Name, period.Month)
		}
	}
	if err := problems.Err(); err != nil {
		return domain.AccountingPeriod{}, err
	}

	batch := domain.Batch{Periods: []domain.AccountingPeriod{closed}}
	if next, ok := s.repo.PeriodByMonth(period.Month.Next()); ok {
		checkpoints, err := s.checkpoints(period, next)
		if err != nil {
			return domain.AccountingPeriod{}, err
		}
		batch.Checkpoints = checkpoints
	}

	if err := s.repo.Commit(ctx, batch); err != nil {
		return domain.AccountingPeriod{}, err
	}

	s.logger.Info("accounting period closed",
		zap.String("period", period.Month.String()),
		zap.Int("checkpoints", len(batch.Checkpoints)))
	s.publish(events.Notification{Kind: events.KindPeriodClosed, Period: string(period.ID)})
	return closed, nil
}

// checkpoints snapshots every account's ending balance of closed at the start of next.
func (s *Service) checkpoints(closed, next domain.AccountingPeriod) ([]domain.Checkpoint, error) {
	accounts := s.repo.Accounts()
	out := make([]domain.Checkpoint, 0, len(accounts))
	for _, account := range accounts {
		ending, err := s.balances.EndingBalance(account.ID, closed.ID)
		if err != nil {
			return nil, err
		}
		cp, err := domain.NewCheckpoint(next, ending)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}
