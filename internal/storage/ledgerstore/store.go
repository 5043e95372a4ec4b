// Package ledgerstore keeps ledger records in memory behind indexed lookups and
// optionally persists every committed batch to a write-ahead journal.
package ledgerstore

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
)

// Store is the repository for funds, accounts, periods, events, transactions
// and checkpoints. Reads may run concurrently; commits are serialized.
type Store struct {
	journal *Journal
	mu      sync.RWMutex

	funds        map[domain.FundID]domain.Fund
	accounts     map[domain.AccountID]domain.Account
	periods      map[domain.PeriodID]domain.AccountingPeriod
	periodMonths map[date.Month]domain.PeriodID
	events       map[domain.EventID]domain.BalanceEvent
	byDate       map[date.Date][]domain.EventID
	byPeriod     map[domain.PeriodID][]domain.EventID
	byAccount    map[domain.AccountID][]domain.BalanceEvent
	transactions map[domain.TransactionID]domain.Transaction
	checkpoints  map[domain.AccountID]map[domain.PeriodID]domain.Checkpoint
}

// New returns an empty store that keeps nothing on disk.
func New() *Store {
	return &Store{
		funds:        make(map[domain.FundID]domain.Fund),
		accounts:     make(map[domain.AccountID]domain.Account),
		periods:      make(map[domain.PeriodID]domain.AccountingPeriod),
		periodMonths: make(map[date.Month]domain.PeriodID),
		events:       make(map[domain.EventID]domain.BalanceEvent),
		byDate:       make(map[date.Date][]domain.EventID),
		byPeriod:     make(map[domain.PeriodID][]domain.EventID),
		byAccount:    make(map[domain.AccountID][]domain.BalanceEvent),
		transactions: make(map[domain.TransactionID]domain.Transaction),
		checkpoints:  make(map[domain.AccountID]map[domain.PeriodID]domain.Checkpoint),
	}
}

// Open builds a store from everything recorded in the journal and keeps
// appending new commits to it.
func Open(journal *Journal) (*Store, error) {
	s := New()
	if err := journal.Replay(func(batch domain.Batch) error {
		s.apply(batch)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "replay ledger journal")
	}
	s.journal = journal
	return s, nil
}

// Commit persists the batch, then makes it visible to readers.
func (s *Store) Commit(ctx context.Context, batch domain.Batch) error {
	if batch.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.journal != nil {
		if err := s.journal.Append(ctx, batch); err != nil {
			return errors.Wrap(err, "commit ledger batch")
		}
	}
	s.apply(batch)
	return nil
}

// Close closes the journal if there is one.
func (s *Store) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

func (s *Store) apply(batch domain.Batch) {
	for _, f := range batch.Funds {
		s.funds[f.ID] = f
	}
	for _, a := range batch.Accounts {
		s.accounts[a.ID] = a
	}
	for _, p := range batch.Periods {
		s.periods[p.ID] = p
		s.periodMonths[p.Month] = p.ID
	}
	for _, e := range batch.Events {
		s.insertEvent(e)
	}
	for _, t := range batch.Transactions {
		s.transactions[t.ID] = t
	}
	for _, c := range batch.Checkpoints {
		if s.checkpoints[c.Account] == nil {
			s.checkpoints[c.Account] = make(map[domain.PeriodID]domain.Checkpoint)
		}
		s.checkpoints[c.Account][c.Period] = c
	}
}

func (s *Store) insertEvent(e domain.BalanceEvent) {
	if _, ok := s.events[e.ID]; ok {
		return
	}
	s.events[e.ID] = e
	s.byDate[e.Date] = append(s.byDate[e.Date], e.ID)
	s.byPeriod[e.Period] = append(s.byPeriod[e.Period], e.ID)

	list := s.byAccount[e.Account]
	i, _ := slices.BinarySearchFunc(list, e, domain.CompareEvents)
	s.byAccount[e.Account] = slices.Insert(list, i, e)
}

func (s *Store) Fund(id domain.FundID) (domain.Fund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.funds[id]
	if !ok {
		return domain.Fund{}, domain.NotFoundf("fund %s", id)
	}
	return f, nil
}

func (s *Store) FundByName(name string) (domain.Fund, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.funds {
		if f.Name == name {
			return f, true
		}
	}
	return domain.Fund{}, false
}

// Funds lists funds by name.
func (s *Store) Funds() []domain.Fund {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Fund, 0, len(s.funds))
	for _, f := range s.funds {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) Account(id domain.AccountID) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.NotFoundf("account %s", id)
	}
	return a, nil
}

func (s *Store) AccountByName(name string) (domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.Name == name {
			return a, true
		}
	}
	return domain.Account{}, false
}

// Accounts lists accounts by name.
func (s *Store) Accounts() []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) Period(id domain.PeriodID) (domain.AccountingPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.periods[id]
	if !ok {
		return domain.AccountingPeriod{}, domain.NotFoundf("accounting period %s", id)
	}
	return p, nil
}

func (s *Store) PeriodByMonth(m date.Month) (domain.AccountingPeriod, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.periodMonths[m]
	if !ok {
		return domain.AccountingPeriod{}, false
	}
	return s.periods[id], true
}

// Periods lists periods oldest first.
func (s *Store) Periods() []domain.AccountingPeriod {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AccountingPeriod, 0, len(s.periods))
	for _, p := range s.periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

func (s *Store) Event(id domain.EventID) (domain.BalanceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return domain.BalanceEvent{}, domain.NotFoundf("balance event %s", id)
	}
	return e, nil
}

// EventsOnDate returns the events of every account dated d, in order.
func (s *Store) EventsOnDate(d date.Date) []domain.BalanceEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(s.byDate[d])
}

// EventsInPeriod returns the events filed under a period, in order.
func (s *Store) EventsInPeriod(id domain.PeriodID) []domain.BalanceEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(s.byPeriod[id])
}

// AccountEvents returns the account's events dated inside r, in order.
func (s *Store) AccountEvents(account domain.AccountID, r date.Range) []domain.BalanceEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.BalanceEvent
	for _, e := range s.byAccount[account] {
		if r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) Transaction(id domain.TransactionID) (domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[id]
	if !ok {
		return domain.Transaction{}, domain.NotFoundf("transaction %s", id)
	}
	return t, nil
}

func (s *Store) Checkpoint(account domain.AccountID, period domain.PeriodID) (domain.Checkpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.checkpoints[account][period]
	return c, ok
}

// Checkpoints lists an account's checkpoints oldest first.
func (s *Store) Checkpoints(account domain.AccountID) []domain.Checkpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Checkpoint, 0, len(s.checkpoints[account]))
	for _, c := range s.checkpoints[account] {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

func (s *Store) collect(ids []domain.EventID) []domain.BalanceEvent {
	out := make([]domain.BalanceEvent, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.events[id])
	}
	slices.SortFunc(out, domain.CompareEvents)
	return out
}
