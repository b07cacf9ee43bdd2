package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsBefore(t *testing.T) {
	ref := time.Date(2025, 5, 18, 15, 30, 0, 0, time.UTC)

	assert.True(t, IsBefore("2025-05-17", ref))
	assert.True(t, IsBefore("2025-05-17T23:59", ref))
	assert.False(t, IsBefore("2025-05-18", ref), "same day is not before")
	assert.False(t, IsBefore("2025-05-18T00:01", ref))
	assert.False(t, IsBefore("2025-05-19", ref))
}

func TestIsBeforeInvalidInput(t *testing.T) {
	ref := day(2025, 5, 18)
	for _, in := range []string{"", "   ", "not a date", "2025-13-40", "17/05/2025"} {
		assert.False(t, IsBefore(in, ref), "input %q", in)
	}
}

func TestIsBetweenHalfOpen(t *testing.T) {
	start := day(2025, 6, 1)
	end := day(2025, 6, 8)

	assert.True(t, IsBetween("2025-06-01", start, end), "start is inclusive")
	assert.True(t, IsBetween("2025-06-07T23:00", start, end))
	assert.False(t, IsBetween("2025-06-08", start, end), "end is exclusive")
	assert.False(t, IsBetween("2025-05-31", start, end))
	assert.False(t, IsBetween("garbage", start, end))

	// consecutive windows tile without overlap
	next := day(2025, 6, 15)
	for d := start; d.Before(next); d = d.AddDate(0, 0, 1) {
		s := FormatDate(d)
		inFirst := IsBetween(s, start, end)
		inSecond := IsBetween(s, end, next)
		assert.True(t, inFirst != inSecond, "day %s must be in exactly one window", s)
	}
}

func TestCombineDateTime(t *testing.T) {
	got, ok := CombineDateTime("2025-05-17", "14:00", time.UTC)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 5, 17, 14, 0, 0, 0, time.UTC), got)

	_, ok = CombineDateTime("2025-05-17", "25:00", time.UTC)
	assert.False(t, ok)
	_, ok = CombineDateTime("", "10:00", time.UTC)
	assert.False(t, ok)
}

func TestDaysBetweenAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	a := time.Date(2025, 3, 8, 23, 0, 0, 0, loc)
	b := time.Date(2025, 3, 9, 1, 0, 0, 0, loc)
	assert.Equal(t, 1, DaysBetween(a, b))
	assert.Equal(t, -1, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a.Add(30*time.Minute)))
}

func TestDaysBetweenFarApart(t *testing.T) {
	a := time.Date(1700, 5, 18, 0, 0, 0, 0, time.UTC)
	b := time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 118704, DaysBetween(a, b))
	assert.Equal(t, -118704, DaysBetween(b, a))
}

func TestClockPart(t *testing.T) {
	assert.Equal(t, "09:30", ClockPart("2025-06-01T09:30"))
	assert.Equal(t, "2025-06-01", ClockPart("2025-06-01"))
}
