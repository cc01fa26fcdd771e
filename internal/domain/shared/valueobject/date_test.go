package valueobject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	ts := time.Date(2026, 3, 15, 23, 59, 59, 999, loc)

	got := StartOfDay(ts)

	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, loc), got)
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"same day ignores time of day", base, base.Add(10 * time.Hour), 0},
		{"next day", base, base.AddDate(0, 0, 1), 1},
		{"a week out", base, base.AddDate(0, 0, 7), 7},
		{"past date is negative", base, base.AddDate(0, 0, -3), -3},
		{"late evening to early morning is still one day", time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC), time.Date(2026, 3, 16, 1, 0, 0, 0, time.UTC), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.from, tt.to))
		})
	}
}

func TestDaysBetween_AcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// DST starts 2026-03-08 in New York; March 8 is a 23-hour day.
	from := time.Date(2026, 3, 7, 8, 0, 0, 0, loc)

	assert.Equal(t, 1, DaysBetween(from, time.Date(2026, 3, 8, 8, 0, 0, 0, loc)))
	assert.Equal(t, 3, DaysBetween(from, time.Date(2026, 3, 10, 8, 0, 0, 0, loc)))
	assert.Equal(t, -3, DaysBetween(time.Date(2026, 3, 10, 8, 0, 0, 0, loc), from))
}

func TestDayComparisons(t *testing.T) {
	morning := time.Date(2026, 3, 15, 6, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 15, 22, 0, 0, 0, time.UTC)
	nextDay := time.Date(2026, 3, 16, 1, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(morning, evening))
	assert.False(t, SameDay(evening, nextDay))
	assert.True(t, DayBefore(evening, nextDay))
	assert.False(t, DayBefore(morning, evening))
	assert.True(t, DayAfter(nextDay, evening))
	assert.False(t, DayAfter(evening, morning))
}
