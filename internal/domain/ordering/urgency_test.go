package ordering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyUrgency(t *testing.T) {
	today := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		daysOut   int
		threshold int
		urgent    bool
	}{
		{"same day", 0, 7, true},
		{"one day out", 1, 7, true},
		{"one day inside the threshold", 6, 7, true},
		{"exactly at the threshold is not urgent", 7, 7, false},
		{"beyond the threshold", 8, 7, false},
		{"custom threshold boundary", 3, 3, false},
		{"custom threshold inside", 2, 3, true},
		{"past date is urgent", -1, 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delivery := today.AddDate(0, 0, tt.daysOut)
			assert.Equal(t, tt.urgent, ClassifyUrgency(delivery, today, tt.threshold))
		})
	}
}

func TestClassifyUrgency_IgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2026, 4, 1, 23, 50, 0, 0, time.UTC)
	delivery := time.Date(2026, 4, 8, 0, 10, 0, 0, time.UTC)

	// 7 whole calendar days out, threshold 7: not urgent even though the
	// clock distance is just over 6 days.
	assert.False(t, ClassifyUrgency(delivery, today, 7))
}

func TestClassifyUrgency_DefaultThreshold(t *testing.T) {
	today := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, ClassifyUrgency(today.AddDate(0, 0, 6), today, 0))
	assert.False(t, ClassifyUrgency(today.AddDate(0, 0, 7), today, 0))
}
