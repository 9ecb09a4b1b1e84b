package lookup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateAttributes(t *testing.T) {
	tests := []struct {
		name    string
		date    time.Time
		dow     int
		week    int
		quarter int
		weekend bool
	}{
		{"tuesday", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 3, 1, 1, false},
		{"saturday", time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), 7, 1, 1, true},
		{"sunday", time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), 1, 1, 1, true},
		{"iso week rolls into next year", time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), 2, 1, 4, false},
		{"third quarter", time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC), 5, 33, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DateAttributes(tt.date)
			assert.Equal(t, tt.dow, got.DayOfWeek)
			assert.Equal(t, tt.week, got.WeekOfYear)
			assert.Equal(t, tt.quarter, got.Quarter)
			assert.Equal(t, tt.weekend, got.IsWeekend)
		})
	}
}

func TestDateAttributesTruncatesTime(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	got := DateAttributes(time.Date(2024, 1, 2, 23, 30, 0, 0, loc))

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got.Date)
	assert.Equal(t, 2, got.Day)
	assert.Equal(t, 1, got.Month)
	assert.Equal(t, "January", got.MonthName)
	assert.Equal(t, 2024, got.Year)
}
