package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Fund is a named bucket money is earmarked for. A single account can hold money
// for several funds at once.
type Fund struct {
	ID   FundID `json:"id"`
	Name string `json:"name"`
}

// NewFund creates a fund with a fresh id.
func NewFund(name string) (Fund, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Fund{}, Structuralf("fund name must not be empty")
	}
	return Fund{ID: NewFundID(), Name: name}, nil
}

// FundAmount is an amount attributed to one fund.
type FundAmount struct {
	Fund   FundID          `json:"fund"`
	Amount decimal.Decimal `json:"amount"`
}

// ValidateFundAmounts checks that every amount is positive and no fund repeats.
// Every problem is reported; label prefixes the messages.
func ValidateFundAmounts(label string, amounts []FundAmount) error {
	var problems Problems
	seen := make(map[FundID]bool, len(amounts))
	for _, fa := range amounts {
		if fa.Fund == "" {
			problems.Addf(ErrStructural, "%s: fund is required", label)
			continue
		}
		if seen[fa.Fund] {
			problems.Addf(ErrStructural, "%s: fund %s listed more than once", label, fa.Fund)
		}
		seen[fa.Fund] = true
		if !fa.Amount.IsPositive() {
			problems.Addf(ErrStructural, "%s: amount for fund %s must be positive, got %s", label, fa.Fund, fa.Amount)
		}
	}
	return problems.Err()
}

// SumFundAmounts totals the amounts.
func SumFundAmounts(amounts []FundAmount) decimal.Decimal {
	total := decimal.Zero
	for _, fa := range amounts {
		total = total.Add(fa.Amount)
	}
	return total
}

func sortFundAmounts(amounts []FundAmount) {
	sort.Slice(amounts, func(i, j int) bool { return amounts[i].Fund < amounts[j].Fund })
}
