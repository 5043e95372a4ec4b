package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
	"github.com/vadiminshakov/fundledger/internal/events"
)

// ChangeInValueRequest describes interest, a fee or a market move.
type ChangeInValueRequest struct {
	Account domain.AccountID
	Period  domain.PeriodID
	Date    date.Date
	Fund    domain.FundID
	Amount  decimal.Decimal
}

// AddChangeInValue records a change in one fund of an account.
func (s *Service) AddChangeInValue(ctx context.Context, req ChangeInValueRequest) (domain.BalanceEvent, error) {
	account, err := s.repo.Account(req.Account)
	if err != nil {
		return domain.BalanceEvent{}, err
	}

	var problems domain.Problems
	problems.Add(s.checkStructure(account, req.Period, req.Date))
	if req.Amount.IsZero() {
		problems.Addf(domain.ErrStructural, "change in value amount must not be zero")
	}
	problems.Add(s.checkFund(req.Fund))
	if err := problems.Err(); err != nil {
		return domain.BalanceEvent{}, err
	}

	added, err := s.insert(ctx, []domain.BalanceEvent{{
		ID:      domain.NewEventID(),
		Period:  req.Period,
		Account: account.ID,
		Date:    req.Date,
		Payload: domain.ChangeInValue{Fund: req.Fund, Amount: req.Amount},
	}}, domain.Batch{})
	if err != nil {
		return domain.BalanceEvent{}, err
	}
	return added[0], nil
}

// FundConversionRequest moves money between two funds inside one account.
type FundConversionRequest struct {
	Account domain.AccountID
	Period  domain.PeriodID
	Date    date.Date
	From    domain.FundID
	To      domain.FundID
	Amount  decimal.Decimal
}

// AddFundConversion records a fund conversion.
func (s *Service) AddFundConversion(ctx context.Context, req FundConversionRequest) (domain.BalanceEvent, error) {
	account, err := s.repo.Account(req.Account)
	if err != nil {
		return domain.BalanceEvent{}, err
	}

	var problems domain.Problems
	problems.Add(s.checkStructure(account, req.Period, req.Date))
	if !req.Amount.IsPositive() {
		problems.Addf(domain.ErrStructural, "fund conversion amount must be positive, got %s", req.Amount)
	}
	if req.From == req.To {
		problems.Addf(domain.ErrStructural, "fund conversion must move between two different funds")
	}
	problems.Add(s.checkFund(req.From))
	if req.From != req.To {
		problems.Add(s.checkFund(req.To))
	}
	if err := problems.Err(); err != nil {
		return domain.BalanceEvent{}, err
	}

	added, err := s.insert(ctx, []domain.BalanceEvent{{
		ID:      domain.NewEventID(),
		Period:  req.Period,
		Account: account.ID,
		Date:    req.Date,
		Payload: domain.FundConversion{From: req.From, To: req.To, Amount: req.Amount},
	}}, domain.Batch{})
	if err != nil {
		return domain.BalanceEvent{}, err
	}
	return added[0], nil
}

// TransactionRequest describes a transaction. Debit, Credit or both are set.
type TransactionRequest struct {
	Period  domain.PeriodID
	Date    date.Date
	Debit   *domain.AccountID
	Credit  *domain.AccountID
	Amounts []domain.FundAmount
}

// AddTransaction records a transaction as a pending change on each side.
// When both sides are present the credit event is sequenced right after the debit.
func (s *Service) AddTransaction(ctx context.Context, req TransactionRequest) (domain.Transaction, error) {
	var problems domain.Problems

	tx, err := domain.NewTransaction(req.Period, req.Date, req.Debit, req.Credit, req.Amounts)
	problems.Add(err)
	problems.Add(s.checkFunds(req.Amounts))

	var accounts []domain.Account
	for _, id := range []*domain.AccountID{req.Debit, req.Credit} {
		if id == nil {
			continue
		}
		account, err := s.repo.Account(*id)
		if err != nil {
			problems.Add(err)
			continue
		}
		accounts = append(accounts, account)
	}
	period, err := s.checkFiling(req.Period, req.Date)
	problems.Add(err)
	for _, account := range accounts {
		problems.Add(s.checkAccountDates(account, period, req.Date))
	}
	if err := problems.Err(); err != nil {
		return domain.Transaction{}, err
	}

	candidates := make([]domain.BalanceEvent, 0, 2)
	for _, side := range tx.Sides() {
		candidates = append(candidates, tx.Event(side, domain.PhaseAdded, tx.Date))
	}
	if _, err := s.insert(ctx, candidates, domain.Batch{Transactions: []domain.Transaction{tx}}); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// PostTransaction settles one side of a transaction on the posting date. The
// posted event is filed under the transaction's period.
func (s *Service) PostTransaction(ctx context.Context, id domain.TransactionID, side domain.TransactionSide, on date.Date) (domain.Transaction, error) {
	tx, err := s.repo.Transaction(id)
	if err != nil {
		return domain.Transaction{}, err
	}

	posted, err := tx.Post(side, on)
	if err != nil {
		return domain.Transaction{}, err
	}
	account, err := s.repo.Account(tx.Side(side).Account)
	if err != nil {
		return domain.Transaction{}, err
	}
	if err := s.checkStructure(account, tx.Period, on); err != nil {
		return domain.Transaction{}, err
	}

	candidate := tx.Event(side, domain.PhasePosted, on)
	if _, err := s.insert(ctx, []domain.BalanceEvent{candidate}, domain.Batch{Transactions: []domain.Transaction{posted}}); err != nil {
		return domain.Transaction{}, err
	}

	s.logger.Info("transaction posted",
		zap.String("transaction", string(tx.ID)),
		zap.String("side", side.String()),
		zap.String("date", on.String()))
	s.publish(events.Notification{
		Kind:        events.KindTransactionPosted,
		Account:     string(account.ID),
		Period:      string(tx.Period),
		Transaction: string(tx.ID),
		Date:        on.String(),
	})
	return posted, nil
}
