package domain

import (
	"github.com/vadiminshakov/fundledger/internal/date"
)

// TransactionSide is the debit or credit half of a transaction.
type TransactionSide string

const (
	SideDebit  TransactionSide = "debit"
	SideCredit TransactionSide = "credit"
)

func (s TransactionSide) String() string { return string(s) }

// IsValid checks if the TransactionSide value is valid.
func (s TransactionSide) IsValid() bool { return s == SideDebit || s == SideCredit }

// Increases reports whether this side raises the balance of an account of the
// given type. Debt balances are amounts owed, so the direction is inverted.
func (s TransactionSide) Increases(typ AccountType) bool {
	if typ == AccountTypeDebt {
		return s == SideDebit
	}
	return s == SideCredit
}

// TransactionPhase distinguishes the pending and settled halves of a side.
type TransactionPhase string

const (
	PhaseAdded  TransactionPhase = "added"
	PhasePosted TransactionPhase = "posted"
)

// SideState is the posting state of one side.
type SideState string

const (
	StateUnposted SideState = "unposted"
	StatePosted   SideState = "posted"
)

// SideEntry is one account's participation in a transaction.
type SideEntry struct {
	Account    AccountID `json:"account"`
	State      SideState `json:"state"`
	PostedDate date.Date `json:"posted_date"`
}

// Transaction moves money out of a debit account and/or into a credit account.
// Each side is added as a pending change and later posted independently.
type Transaction struct {
	ID      TransactionID `json:"id"`
	Period  PeriodID      `json:"period"`
	Date    date.Date     `json:"date"`
	Debit   *SideEntry    `json:"debit,omitempty"`
	Credit  *SideEntry    `json:"credit,omitempty"`
	Amounts []FundAmount  `json:"amounts"`
}

// NewTransaction validates the shape of a transaction. At least one side is
// required and both sides may not name the same account.
func NewTransaction(period PeriodID, on date.Date, debit, credit *AccountID, amounts []FundAmount) (Transaction, error) {
	var problems Problems
	if debit == nil && credit == nil {
		problems.Addf(ErrStructural, "transaction needs a debit or a credit account")
	}
	if debit != nil && credit != nil && *debit == *credit {
		problems.Addf(ErrStructural, "debit and credit account must differ")
	}
	if len(amounts) == 0 {
		problems.Addf(ErrStructural, "transaction needs at least one fund amount")
	}
	problems.Add(ValidateFundAmounts("transaction", amounts))
	if err := problems.Err(); err != nil {
		return Transaction{}, err
	}

	tx := Transaction{
		ID:      NewTransactionID(),
		Period:  period,
		Date:    on,
		Amounts: append([]FundAmount(nil), amounts...),
	}
	sortFundAmounts(tx.Amounts)
	if debit != nil {
		tx.Debit = &SideEntry{Account: *debit, State: StateUnposted}
	}
	if credit != nil {
		tx.Credit = &SideEntry{Account: *credit, State: StateUnposted}
	}
	return tx, nil
}

// Side returns the entry for a side, or nil when the transaction has none.
func (t Transaction) Side(side TransactionSide) *SideEntry {
	switch side {
	case SideDebit:
		return t.Debit
	case SideCredit:
		return t.Credit
	default:
		return nil
	}
}

// Sides lists the present sides, debit first.
func (t Transaction) Sides() []TransactionSide {
	var out []TransactionSide
	if t.Debit != nil {
		out = append(out, SideDebit)
	}
	if t.Credit != nil {
		out = append(out, SideCredit)
	}
	return out
}

// Event builds the balance event for one phase of one side. Sequence is left
// for the caller to assign.
func (t Transaction) Event(side TransactionSide, phase TransactionPhase, on date.Date) BalanceEvent {
	entry := t.Side(side)
	return BalanceEvent{
		ID:      NewEventID(),
		Period:  t.Period,
		Account: entry.Account,
		Date:    on,
		Payload: TransactionEvent{
			Transaction: t.ID,
			Side:        side,
			Phase:       phase,
			Amounts:     t.Amounts,
		},
	}
}

// Post moves a side from unposted to posted. The transaction is returned with
// a fresh copy of the posted side.
func (t Transaction) Post(side TransactionSide, on date.Date) (Transaction, error) {
	var problems Problems
	entry := t.Side(side)
	switch {
	case !side.IsValid():
		problems.Addf(ErrStructural, "unknown transaction side %q", side)
	case entry == nil:
		problems.Addf(ErrStructural, "transaction %s has no %s side", t.ID, side)
	case entry.State == StatePosted:
		problems.Addf(ErrLifecycle, "%s side of transaction %s was already posted on %s", side, t.ID, entry.PostedDate)
	}
	if on.IsZero() {
		problems.Addf(ErrStructural, "posting date is required")
	} else if on.Before(t.Date) {
		problems.Addf(ErrStructural, "posting date %s is before transaction date %s", on, t.Date)
	}
	if err := problems.Err(); err != nil {
		return t, err
	}

	posted := *entry
	posted.State = StatePosted
	posted.PostedDate = on
	if side == SideDebit {
		t.Debit = &posted
	} else {
		t.Credit = &posted
	}
	return t, nil
}

// FullyPosted reports whether every present side is posted.
func (t Transaction) FullyPosted() bool {
	for _, side := range t.Sides() {
		if t.Side(side).State != StatePosted {
			return false
		}
	}
	return true
}
