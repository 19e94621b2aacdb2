package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDisplayDate(t *testing.T) {
	got, err := ParseDisplayDate("10 Apr, 2025")
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.April, got.Month())
	assert.Equal(t, 10, got.Day())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, 0, got.Minute())
}

func TestParseDisplayDateRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "2025-04-10", "Apr 10, 2025", "32 Apr, 2025"} {
		_, err := ParseDisplayDate(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("8:00 AM")
	require.NoError(t, err)
	assert.Equal(t, 8, got.Hour())

	got, err = ParseClock("2:30 PM")
	require.NoError(t, err)
	assert.Equal(t, 14, got.Hour())
	assert.Equal(t, 30, got.Minute())
}

func TestParseClockRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "14:00", "8:00", "8:00 XM"} {
		_, err := ParseClock(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestCombine(t *testing.T) {
	got, err := Combine("10 Apr, 2025", "2:30 PM")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.April, 10, 14, 30, 0, 0, time.Local), got)

	_, err = Combine("bad", "2:30 PM")
	assert.Error(t, err)
	_, err = Combine("10 Apr, 2025", "bad")
	assert.Error(t, err)
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, time.April, 10, 1, 0, 0, 0, time.Local)
	b := time.Date(2025, time.April, 10, 23, 59, 0, 0, time.Local)
	c := time.Date(2025, time.April, 11, 0, 0, 0, 0, time.Local)

	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, c))
}

func TestIsTomorrowOrLater(t *testing.T) {
	now := time.Date(2025, time.April, 10, 15, 0, 0, 0, time.Local)

	assert.False(t, IsTomorrowOrLater(now, now))
	assert.False(t, IsTomorrowOrLater(now.Add(2*time.Hour), now))
	assert.True(t, IsTomorrowOrLater(StartOfTomorrow(now), now))
	assert.True(t, IsTomorrowOrLater(now.AddDate(0, 0, 3), now))
}

func TestFormatRoundTrip(t *testing.T) {
	date := time.Date(2025, time.April, 5, 0, 0, 0, 0, time.Local)
	parsed, err := ParseDisplayDate(FormatDate(date))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(date))
}
