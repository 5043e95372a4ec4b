// Package date provides calendar dates without time-of-day or time zone,
// plus the month and range helpers the ledger is built on.
package date

import (
	"encoding/json"
	"fmt"
	"time"
)

const layout = "2006-01-02"

// Date is a calendar day. The zero value means "no date".
type Date struct {
	y int
	m time.Month
	d int
}

// New returns the date for year, month and day, normalizing overflow the way time.Date does.
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime truncates t to its calendar day.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{y: y, m: m, d: d}
}

// Today returns the current local date.
func Today() Date {
	return FromTime(time.Now())
}

// Parse accepts YYYY-MM-DD, tolerating missing zero padding.
func Parse(s string) (Date, error) {
	t, err := time.Parse("2006-1-2", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// MustParse is Parse that panics on error. Intended for tests and literals.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) Year() int          { return d.y }
func (d Date) Month() time.Month  { return d.m }
func (d Date) Day() int           { return d.d }
func (d Date) IsZero() bool       { return d == Date{} }
func (d Date) Time() time.Time    { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }
func (d Date) MonthOf() Month     { return Month{Year: d.y, Month: d.m} }
func (d Date) AddDays(n int) Date { return New(d.y, d.m, d.d+n) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(layout)
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int {
	switch {
	case d.y != other.y:
		return cmpInt(d.y, other.y)
	case d.m != other.m:
		return cmpInt(int(d.m), int(other.m))
	default:
		return cmpInt(d.d, other.d)
	}
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
