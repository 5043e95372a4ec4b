package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/fundledger/internal/date"
)

// EventKind names a payload variant.
type EventKind string

const (
	EventKindAccountAdded   EventKind = "account_added"
	EventKindChangeInValue  EventKind = "change_in_value"
	EventKindFundConversion EventKind = "fund_conversion"
	EventKindTransaction    EventKind = "transaction"
)

// Payload is the closed set of balance event variants. The unexported method
// keeps other packages from adding variants.
type Payload interface {
	Kind() EventKind
	payload()
}

// AccountAdded carries an account's starting settled balance.
type AccountAdded struct {
	Funds []FundAmount `json:"funds"`
}

// ChangeInValue is interest, a fee or a market move on one fund. Amount may be
// negative but not zero.
type ChangeInValue struct {
	Fund   FundID          `json:"fund"`
	Amount decimal.Decimal `json:"amount"`
}

// FundConversion moves a positive amount between two funds of the same account.
type FundConversion struct {
	From   FundID          `json:"from"`
	To     FundID          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// TransactionEvent is one phase of one side of a transaction.
type TransactionEvent struct {
	Transaction TransactionID    `json:"transaction"`
	Side        TransactionSide  `json:"side"`
	Phase       TransactionPhase `json:"phase"`
	Amounts     []FundAmount     `json:"amounts"`
}

func (AccountAdded) Kind() EventKind     { return EventKindAccountAdded }
func (ChangeInValue) Kind() EventKind    { return EventKindChangeInValue }
func (FundConversion) Kind() EventKind   { return EventKindFundConversion }
func (TransactionEvent) Kind() EventKind { return EventKindTransaction }

func (AccountAdded) payload()     {}
func (ChangeInValue) payload()    {}
func (FundConversion) payload()   {}
func (TransactionEvent) payload() {}

// BalanceEvent is an immutable, dated, sequenced change to one account's balance.
type BalanceEvent struct {
	ID       EventID
	Period   PeriodID
	Account  AccountID
	Date     date.Date
	Sequence int
	Payload  Payload
}

// Compare orders events by date, then by sequence.
func (e BalanceEvent) Compare(other BalanceEvent) int {
	if c := e.Date.Compare(other.Date); c != 0 {
		return c
	}
	switch {
	case e.Sequence < other.Sequence:
		return -1
	case e.Sequence > other.Sequence:
		return 1
	default:
		return 0
	}
}

// Before reports whether e comes strictly earlier than other.
func (e BalanceEvent) Before(other BalanceEvent) bool {
	return e.Compare(other) < 0
}

func (e BalanceEvent) String() string {
	return fmt.Sprintf("%s %s #%d on %s", e.Payload.Kind(), e.ID, e.Sequence, e.Date)
}

// CompareEvents is a comparison function for slices.SortFunc.
func CompareEvents(a, b BalanceEvent) int {
	return a.Compare(b)
}

// NextSequence returns the sequence a new event on a date should take given
// the events already recorded on that date, across all accounts.
func NextSequence(eventsOnDate []BalanceEvent) int {
	highest := 0
	for _, e := range eventsOnDate {
		if e.Sequence > highest {
			highest = e.Sequence
		}
	}
	return highest + 1
}

type eventJSON struct {
	ID       EventID         `json:"id"`
	Period   PeriodID        `json:"period"`
	Account  AccountID       `json:"account"`
	Date     date.Date       `json:"date"`
	Sequence int             `json:"sequence"`
	Kind     EventKind       `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
}

func (e BalanceEvent) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("event %s has no payload", e.ID)
	}
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventJSON{
		ID:       e.ID,
		Period:   e.Period,
		Account:  e.Account,
		Date:     e.Date,
		Sequence: e.Sequence,
		Kind:     e.Payload.Kind(),
		Payload:  raw,
	})
}

func (e *BalanceEvent) UnmarshalJSON(data []byte) error {
	var v eventJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	var p Payload
	switch v.Kind {
	case EventKindAccountAdded:
		var x AccountAdded
		if err := json.Unmarshal(v.Payload, &x); err != nil {
			return err
		}
		p = x
	case EventKindChangeInValue:
		var x ChangeInValue
		if err := json.Unmarshal(v.Payload, &x); err != nil {
			return err
		}
		p = x
	case EventKindFundConversion:
		var x FundConversion
		if err := json.Unmarshal(v.Payload, &x); err != nil {
			return err
		}
		p = x
	case EventKindTransaction:
		var x TransactionEvent
		if err := json.Unmarshal(v.Payload, &x); err != nil {
			return err
		}
		p = x
	default:
		return fmt.Errorf("unknown balance event kind %q", v.Kind)
	}

	*e = BalanceEvent{
		ID:       v.ID,
		Period:   v.Period,
		Account:  v.Account,
		Date:     v.Date,
		Sequence: v.Sequence,
		Payload:  p,
	}
	return nil
}
