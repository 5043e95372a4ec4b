package date

import (
	"fmt"
	"iter"
)

// Endpoint controls whether a Range boundary belongs to the range.
type Endpoint int

const (
	Inclusive Endpoint = iota
	Exclusive
)

// Range is a span of dates. A zero To means the range is unbounded above.
type Range struct {
	From     Date
	To       Date
	FromType Endpoint
	ToType   Endpoint
}

// Between returns the closed range [from, to].
func Between(from, to Date) Range {
	return Range{From: from, To: to}
}

// Since returns [from, ∞).
func Since(from Date) Range {
	return Range{From: from}
}

// Contains reports whether d falls inside the range.
func (r Range) Contains(d Date) bool {
	if !r.From.IsZero() {
		c := d.Compare(r.From)
		if c < 0 || (c == 0 && r.FromType == Exclusive) {
			return false
		}
	}
	if !r.To.IsZero() {
		c := d.Compare(r.To)
		if c > 0 || (c == 0 && r.ToType == Exclusive) {
			return false
		}
	}
	return true
}

// Days iterates every date in a bounded range in ascending order.
func (r Range) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		if r.From.IsZero() || r.To.IsZero() {
			return
		}
		for d := r.From; !d.After(r.To); d = d.AddDays(1) {
			if !r.Contains(d) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

func (r Range) String() string {
	open, closing := "[", "]"
	if r.FromType == Exclusive {
		open = "("
	}
	if r.ToType == Exclusive {
		closing = ")"
	}
	return fmt.Sprintf("%s%s, %s%s", open, r.From, r.To, closing)
}
