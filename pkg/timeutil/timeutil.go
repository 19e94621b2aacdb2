package timeutil

import (
	"fmt"
	"time"
)

// Display layouts used throughout the application. Dates render like
// "10 Apr, 2025" and times like "8:00 AM". Ordering always uses the parsed
// time.Time, never the display strings.
const (
	DateLayout  = "02 Jan, 2006"
	ClockLayout = "3:04 PM"
)

// ParseDisplayDate parses a "02 Jan, 2006" display date into the start of
// that local day.
func ParseDisplayDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return StartOfDay(t), nil
}

// ParseClock parses a "3:04 PM" display time.
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t, nil
}

// Combine merges a display date and a display time into a single local
// timestamp. Both parts must parse; there is no fallback.
func Combine(dateStr, clockStr string) (time.Time, error) {
	date, err := ParseDisplayDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := ParseClock(clockStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), 0, 0, time.Local), nil
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func StartOfTomorrow(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsTomorrowOrLater reports whether t falls on or after the day following
// now's calendar day.
func IsTomorrowOrLater(t, now time.Time) bool {
	return !t.Before(StartOfTomorrow(now))
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func FormatClock(t time.Time) string {
	return t.Format(ClockLayout)
}
