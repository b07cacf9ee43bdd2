// Package timeutil holds the day-boundary helpers shared by the reminder,
// calendar and planner code. Predicates never fail: unparseable input counts as
// "no date".
package timeutil

import (
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	ClockLayout    = "15:04"
	DateTimeLayout = "2006-01-02T15:04"
)

var parseLayouts = []string{
	DateLayout,
	DateTimeLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// Parse reads a date-like string in loc. Layouts with an explicit offset keep
// it and are then moved into loc.
func Parse(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// ParseClock validates an HH:MM string and returns hour and minute.
func ParseClock(raw string) (int, int, bool) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(raw))
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CombineDateTime joins a YYYY-MM-DD date and an HH:MM clock into one instant.
func CombineDateTime(date, clock string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, false
	}
	h, m, ok := ParseClock(clock)
	if !ok {
		return time.Time{}, false
	}
	y, mo, d := day.Date()
	return time.Date(y, mo, d, h, m, 0, 0, loc), true
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween counts calendar days from a to b, ignoring clock time and DST.
// It works on Unix seconds because a Duration overflows past about 292 years.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC).Unix()
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC).Unix()
	return int((to - from) / secondsPerDay)
}

// ClockPart returns the HH:MM half of a YYYY-MM-DDTHH:MM value, or the value
// itself when it has no clock.
func ClockPart(dateTime string) string {
	if i := strings.IndexByte(dateTime, 'T'); i >= 0 {
		return dateTime[i+1:]
	}
	return dateTime
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// IsBefore reports whether dateLike falls on a day strictly before ref's day.
func IsBefore(dateLike string, ref time.Time) bool {
	d, ok := Parse(dateLike, ref.Location())
	if !ok {
		return false
	}
	return StartOfDay(d).Before(StartOfDay(ref))
}

// IsBetween reports start <= day(dateLike) < end, with all three at midnight.
// The end bound is exclusive so consecutive windows tile.
func IsBetween(dateLike string, start, end time.Time) bool {
	d, ok := Parse(dateLike, start.Location())
	if !ok {
		return false
	}
	day := StartOfDay(d)
	return !day.Before(StartOfDay(start)) && day.Before(StartOfDay(end))
}
