package date

import (
	"encoding/json"
	"fmt"
	"time"
)

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth accepts YYYY-MM.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-1", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Start is the first day of the month.
func (m Month) Start() Date { return New(m.Year, m.Month, 1) }

// End is the last day of the month.
func (m Month) End() Date { return New(m.Year, m.Month+1, 0) }

func (m Month) Next() Month { return m.Start().AddDays(32).MonthOf() }
func (m Month) Prev() Month { return m.Start().AddDays(-1).MonthOf() }

// Index counts months since year zero; differences of indexes are month distances.
func (m Month) Index() int { return m.Year*12 + int(m.Month) - 1 }

// Distance returns the signed number of months from m to other.
func (m Month) Distance(other Month) int { return other.Index() - m.Index() }

func (m Month) Compare(other Month) int { return cmpInt(m.Index(), other.Index()) }
func (m Month) Before(other Month) bool { return m.Index() < other.Index() }

func (m Month) Contains(d Date) bool { return d.MonthOf() == m }

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Month) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
