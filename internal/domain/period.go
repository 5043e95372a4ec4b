package domain

import (
	"time"

	"github.com/vadiminshakov/fundledger/internal/date"
)

const (
	minPeriodYear = 2020
	maxPeriodYear = 2050
)

// AccountingPeriod is one calendar month of bookkeeping. Periods form a
// contiguous chain, start open and close once, oldest first.
type AccountingPeriod struct {
	ID    PeriodID   `json:"id"`
	Month date.Month `json:"month"`
	Open  bool       `json:"open"`
}

// NewAccountingPeriod validates year and month and returns an open period.
func NewAccountingPeriod(year int, month time.Month) (AccountingPeriod, error) {
	var problems Problems
	if year < minPeriodYear || year > maxPeriodYear {
		problems.Addf(ErrStructural, "year must be between %d and %d, got %d", minPeriodYear, maxPeriodYear, year)
	}
	if month < time.January || month > time.December {
		problems.Addf(ErrStructural, "month must be between 1 and 12, got %d", month)
	}
	if err := problems.Err(); err != nil {
		return AccountingPeriod{}, err
	}
	return AccountingPeriod{
		ID:    NewPeriodID(),
		Month: date.Month{Year: year, Month: month},
		Open:  true,
	}, nil
}

// Start is the first day of the period month.
func (p AccountingPeriod) Start() date.Date { return p.Month.Start() }

// End is the last day of the period month.
func (p AccountingPeriod) End() date.Date { return p.Month.End() }

// Close returns the period in closed state. Closing twice is a lifecycle error.
func (p AccountingPeriod) Close() (AccountingPeriod, error) {
	if !p.Open {
		return p, Lifecyclef("accounting period %s is already closed", p.Month)
	}
	p.Open = false
	return p, nil
}

// AcceptsDate reports whether an event dated d may be filed under the period:
// the date must be in the period month or an adjacent one.
func (p AccountingPeriod) AcceptsDate(d date.Date) bool {
	distance := p.Month.Distance(d.MonthOf())
	return distance >= -1 && distance <= 1
}

func (p AccountingPeriod) String() string {
	return p.Month.String()
}
