package date

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d, err := Parse("2025-1-5")
	require.NoError(t, err)
	assert.Equal(t, New(2025, time.January, 5), d)
	assert.Equal(t, "2025-01-05", d.String())

	_, err = Parse("05/01/2025")
	require.Error(t, err)
}

func TestDate_Compare(t *testing.T) {
	a := MustParse("2025-01-31")
	b := MustParse("2025-02-01")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, b, a.AddDays(1))
}

func TestDate_JSON(t *testing.T) {
	d := MustParse("2024-02-29")
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-02-29"`, string(data))

	var back Date
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back)
}

func TestMonth(t *testing.T) {
	m, err := ParseMonth("2024-12")
	require.NoError(t, err)

	assert.Equal(t, MustParse("2024-12-01"), m.Start())
	assert.Equal(t, MustParse("2024-12-31"), m.End())
	assert.Equal(t, Month{Year: 2025, Month: time.January}, m.Next())
	assert.Equal(t, Month{Year: 2024, Month: time.November}, m.Prev())
	assert.Equal(t, 1, m.Distance(m.Next()))
	assert.Equal(t, -2, m.Distance(m.Prev().Prev()))
	assert.Equal(t, MustParse("2024-02-29"), Month{Year: 2024, Month: time.February}.End())
	assert.True(t, m.Contains(MustParse("2024-12-15")))
	assert.Equal(t, "2024-12", m.String())
}

func TestRange_Contains(t *testing.T) {
	from := MustParse("2025-01-01")
	to := MustParse("2025-01-31")

	closed := Between(from, to)
	assert.True(t, closed.Contains(from))
	assert.True(t, closed.Contains(to))
	assert.False(t, closed.Contains(to.AddDays(1)))

	halfOpen := Range{From: from, To: to, ToType: Exclusive}
	assert.False(t, halfOpen.Contains(to))
	assert.True(t, halfOpen.Contains(to.AddDays(-1)))

	unbounded := Since(from)
	assert.True(t, unbounded.Contains(MustParse("2040-06-01")))
	assert.False(t, unbounded.Contains(from.AddDays(-1)))
}

func TestRange_Days(t *testing.T) {
	r := Range{From: MustParse("2025-02-27"), To: MustParse("2025-03-02"), FromType: Exclusive}
	days := slices.Collect(r.Days())

	assert.Equal(t, []Date{
		MustParse("2025-02-28"),
		MustParse("2025-03-01"),
		MustParse("2025-03-02"),
	}, days)
}
