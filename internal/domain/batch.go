package domain

// Batch is everything one ledger operation writes. It is committed as a unit.
type Batch struct {
	Funds        []Fund             `json:"funds,omitempty"`
	Accounts     []Account          `json:"accounts,omitempty"`
	Periods      []AccountingPeriod `json:"periods,omitempty"`
	Events       []BalanceEvent     `json:"events,omitempty"`
	Transactions []Transaction      `json:"transactions,omitempty"`
	Checkpoints  []Checkpoint       `json:"checkpoints,omitempty"`
}

// IsEmpty reports whether the batch writes nothing.
func (b Batch) IsEmpty() bool {
	return len(b.Funds)+len(b.Accounts)+len(b.Periods)+len(b.Events)+len(b.Transactions)+len(b.Checkpoints) == 0
}
