package domain

import (
	"strings"

	"github.com/vadiminshakov/fundledger/internal/date"
)

// AccountType determines how transaction sides move an account's balance.
type AccountType string

const (
	// AccountTypeStandard checking, savings, cash.
	AccountTypeStandard AccountType = "standard"
	// AccountTypeDebt credit cards and loans; the balance is the amount owed.
	AccountTypeDebt AccountType = "debt"
	// AccountTypeInvestment brokerage and retirement accounts.
	AccountTypeInvestment AccountType = "investment"
)

func (t AccountType) String() string {
	return string(t)
}

// IsValid checks if the AccountType value is valid.
func (t AccountType) IsValid() bool {
	return t == AccountTypeStandard || t == AccountTypeDebt || t == AccountTypeInvestment
}

// ParseAccountType accepts the lowercase names.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", Structuralf("unknown account type %q", s)
	}
	return t, nil
}

// Account is a real-world place money lives. Its starting balance is carried by
// the AccountAdded event, which is always its logically-earliest event.
// Checkpoints are kept by the store, ordered by period.
type Account struct {
	ID    AccountID    `json:"id"`
	Name  string       `json:"name"`
	Type  AccountType  `json:"type"`
	Added BalanceEvent `json:"added"`
}

// AddedDate is the date the account entered the ledger.
func (a Account) AddedDate() date.Date {
	return a.Added.Date
}

// NewAccount builds the account together with its AccountAdded event. The
// event still needs a sequence before it is committed.
func NewAccount(name string, typ AccountType, period PeriodID, on date.Date, funds []FundAmount) (Account, error) {
	var problems Problems
	name = strings.TrimSpace(name)
	if name == "" {
		problems.Addf(ErrStructural, "account name must not be empty")
	}
	if !typ.IsValid() {
		problems.Addf(ErrStructural, "unknown account type %q", typ)
	}
	problems.Add(ValidateFundAmounts("starting balance", funds))
	if err := problems.Err(); err != nil {
		return Account{}, err
	}

	id := NewAccountID()
	starting := append([]FundAmount(nil), funds...)
	sortFundAmounts(starting)

	return Account{
		ID:   id,
		Name: name,
		Type: typ,
		Added: BalanceEvent{
			ID:      NewEventID(),
			Period:  period,
			Account: id,
			Date:    on,
			Payload: AccountAdded{Funds: starting},
		},
	}, nil
}
