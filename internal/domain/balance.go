package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// AccountBalance is the immutable per-fund state of one account at a point in
// time: settled amounts plus pending changes from unposted transactions.
// Funds with a zero amount are not stored.
type AccountBalance struct {
	Account AccountID
	Type    AccountType
	settled map[FundID]decimal.Decimal
	pending map[FundID]decimal.Decimal
}

// EmptyBalance is the balance of an account before it is added.
func EmptyBalance(account AccountID, typ AccountType) AccountBalance {
	return AccountBalance{Account: account, Type: typ}
}

// NewAccountBalance builds a balance from explicit amounts and rejects states
// where a fund's settled or settled+pending amount is negative.
func NewAccountBalance(account AccountID, typ AccountType, settled, pending []FundAmount) (AccountBalance, error) {
	b := EmptyBalance(account, typ)
	b.settled = accumulate(nil, settled, decimal.NewFromInt(1))
	b.pending = accumulate(nil, pending, decimal.NewFromInt(1))
	for _, fund := range b.funds() {
		if b.SettledFor(fund).IsNegative() || b.TotalFor(fund).IsNegative() {
			return AccountBalance{}, fmt.Errorf("%w: fund %s would hold settled %s, pending %s",
				ErrInvalidBalanceState, fund, b.SettledFor(fund), b.PendingFor(fund))
		}
	}
	return b, nil
}

// Settled lists settled amounts sorted by fund.
func (b AccountBalance) Settled() []FundAmount { return toFundAmounts(b.settled) }

// Pending lists pending changes sorted by fund.
func (b AccountBalance) Pending() []FundAmount { return toFundAmounts(b.pending) }

func (b AccountBalance) SettledFor(fund FundID) decimal.Decimal { return b.settled[fund] }
func (b AccountBalance) PendingFor(fund FundID) decimal.Decimal { return b.pending[fund] }

// TotalFor is settled plus pending for one fund.
func (b AccountBalance) TotalFor(fund FundID) decimal.Decimal {
	return b.settled[fund].Add(b.pending[fund])
}

func (b AccountBalance) SettledTotal() decimal.Decimal { return sum(b.settled) }
func (b AccountBalance) PendingTotal() decimal.Decimal { return sum(b.pending) }
func (b AccountBalance) Total() decimal.Decimal        { return b.SettledTotal().Add(b.PendingTotal()) }

// HasPending reports whether any fund carries a pending change.
func (b AccountBalance) HasPending() bool { return len(b.pending) > 0 }

// Equal compares account and amounts.
func (b AccountBalance) Equal(other AccountBalance) bool {
	return b.Account == other.Account && equalAmounts(b.settled, other.settled) && equalAmounts(b.pending, other.pending)
}

// Apply returns the balance after e. Events of other accounts leave it unchanged.
func (b AccountBalance) Apply(e BalanceEvent) AccountBalance {
	return b.shift(e, decimal.NewFromInt(1))
}

// Reverse undoes Apply exactly.
func (b AccountBalance) Reverse(e BalanceEvent) AccountBalance {
	return b.shift(e, decimal.NewFromInt(-1))
}

// CanApply reports whether e belongs to this account and leaves every fund it
// touches with non-negative settled and settled+pending amounts.
func (b AccountBalance) CanApply(e BalanceEvent) bool {
	if e.Account != b.Account {
		return false
	}
	after := b.Apply(e)
	settled, pending := effect(e, b.Type)
	for _, changes := range [][]FundAmount{settled, pending} {
		for _, fa := range changes {
			if after.SettledFor(fa.Fund).IsNegative() || after.TotalFor(fa.Fund).IsNegative() {
				return false
			}
		}
	}
	return true
}

func (b AccountBalance) shift(e BalanceEvent, sign decimal.Decimal) AccountBalance {
	if e.Account != b.Account {
		return b
	}
	settled, pending := effect(e, b.Type)
	return AccountBalance{
		Account: b.Account,
		Type:    b.Type,
		settled: accumulate(b.settled, settled, sign),
		pending: accumulate(b.pending, pending, sign),
	}
}

// effect is the signed per-fund change an event makes to settled and pending
// amounts. Every payload variant must be handled here.
func effect(e BalanceEvent, typ AccountType) (settled, pending []FundAmount) {
	switch p := e.Payload.(type) {
	case AccountAdded:
		return p.Funds, nil
	case ChangeInValue:
		return []FundAmount{{Fund: p.Fund, Amount: p.Amount}}, nil
	case FundConversion:
		return []FundAmount{
			{Fund: p.From, Amount: p.Amount.Neg()},
			{Fund: p.To, Amount: p.Amount},
		}, nil
	case TransactionEvent:
		signed := make([]FundAmount, 0, len(p.Amounts))
		for _, fa := range p.Amounts {
			amount := fa.Amount
			if !p.Side.Increases(typ) {
				amount = amount.Neg()
			}
			signed = append(signed, FundAmount{Fund: fa.Fund, Amount: amount})
		}
		if p.Phase == PhaseAdded {
			return nil, signed
		}
		unpend := make([]FundAmount, 0, len(signed))
		for _, fa := range signed {
			unpend = append(unpend, FundAmount{Fund: fa.Fund, Amount: fa.Amount.Neg()})
		}
		return signed, unpend
	default:
		panic(fmt.Sprintf("unhandled balance event payload %T", e.Payload))
	}
}

func accumulate(base map[FundID]decimal.Decimal, changes []FundAmount, sign decimal.Decimal) map[FundID]decimal.Decimal {
	out := make(map[FundID]decimal.Decimal, len(base)+len(changes))
	for fund, amount := range base {
		out[fund] = amount
	}
	for _, fa := range changes {
		out[fa.Fund] = out[fa.Fund].Add(fa.Amount.Mul(sign))
		if out[fa.Fund].IsZero() {
			delete(out, fa.Fund)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (b AccountBalance) funds() []FundID {
	seen := make(map[FundID]bool)
	var out []FundID
	for _, m := range []map[FundID]decimal.Decimal{b.settled, b.pending} {
		for fund := range m {
			if !seen[fund] {
				seen[fund] = true
				out = append(out, fund)
			}
		}
	}
	return out
}

func toFundAmounts(m map[FundID]decimal.Decimal) []FundAmount {
	out := make([]FundAmount, 0, len(m))
	for fund, amount := range m {
		out = append(out, FundAmount{Fund: fund, Amount: amount})
	}
	sortFundAmounts(out)
	return out
}

func sum(m map[FundID]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range m {
		total = total.Add(amount)
	}
	return total
}

func equalAmounts(a, b map[FundID]decimal.Decimal) bool {
	if len(a) != len(b) {
		return false
	}
	for fund, amount := range a {
		other, ok := b[fund]
		if !ok || !amount.Equal(other) {
			return false
		}
	}
	return true
}

type balanceJSON struct {
	Account AccountID       `json:"account"`
	Type    AccountType     `json:"type"`
	Settled []FundAmount    `json:"settled"`
	Pending []FundAmount    `json:"pending"`
	Balance decimal.Decimal `json:"balance"`
	Total   decimal.Decimal `json:"total"`
}

func (b AccountBalance) MarshalJSON() ([]byte, error) {
	return json.Marshal(balanceJSON{
		Account: b.Account,
		Type:    b.Type,
		Settled: b.Settled(),
		Pending: b.Pending(),
		Balance: b.SettledTotal(),
		Total:   b.Total(),
	})
}
