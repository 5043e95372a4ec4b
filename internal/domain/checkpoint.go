package domain

import (
	"github.com/vadiminshakov/fundledger/internal/date"
)

// Checkpoint is the settled balance an account starts a period with. It is
// written when the previous period closes and equals that period's ending balance.
type Checkpoint struct {
	Account AccountID    `json:"account"`
	Period  PeriodID     `json:"period"`
	Month   date.Month   `json:"month"`
	Funds   []FundAmount `json:"funds"`
}

// NewCheckpoint snapshots an ending balance at the start of the given period.
// Pending changes must already be resolved.
func NewCheckpoint(period AccountingPeriod, ending AccountBalance) (Checkpoint, error) {
	if ending.HasPending() {
		return Checkpoint{}, Lifecyclef("account %s still has pending changes at the end of %s", ending.Account, period.Month.Prev())
	}
	return Checkpoint{
		Account: ending.Account,
		Period:  period.ID,
		Month:   period.Month,
		Funds:   ending.Settled(),
	}, nil
}

// Boundary is the first date the checkpoint applies to.
func (c Checkpoint) Boundary() date.Date {
	return c.Month.Start()
}

// Balance turns the checkpoint back into an account balance.
func (c Checkpoint) Balance(typ AccountType) (AccountBalance, error) {
	return NewAccountBalance(c.Account, typ, c.Funds, nil)
}
