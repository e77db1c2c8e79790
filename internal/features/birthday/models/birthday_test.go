package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDayMonth(t *testing.T) {
	tests := []struct {
		input string
		day   int
		month int
		ok    bool
	}{
		{"28.07", 28, 7, true},
		{"1.1", 1, 1, true},
		{"29.02", 29, 2, true},
		{"31.04", 0, 0, false},
		{"30.02", 0, 0, false},
		{"00.05", 0, 0, false},
		{"15.13", 0, 0, false},
		{"28/07", 0, 0, false},
		{"birthday", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			day, month, err := ParseDayMonth(tt.input)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.day, day)
			assert.Equal(t, tt.month, month)
		})
	}
}

func TestNextOccurrence(t *testing.T) {
	t.Run("future date stays in current year", func(t *testing.T) {
		now := time.Date(2026, time.July, 1, 10, 0, 0, 0, time.UTC)
		occ := NextOccurrence(28, 7, now)
		assert.Equal(t, time.Date(2026, time.July, 28, 0, 0, 0, 0, time.UTC), occ)
	})

	t.Run("passed date moves to next year", func(t *testing.T) {
		now := time.Date(2026, time.July, 30, 10, 0, 0, 0, time.UTC)
		occ := NextOccurrence(28, 7, now)
		assert.Equal(t, time.Date(2027, time.July, 28, 0, 0, 0, 0, time.UTC), occ)
	})

	t.Run("same day counts as not passed", func(t *testing.T) {
		now := time.Date(2026, time.July, 28, 23, 0, 0, 0, time.UTC)
		occ := NextOccurrence(28, 7, now)
		assert.Equal(t, time.Date(2026, time.July, 28, 0, 0, 0, 0, time.UTC), occ)
	})
}

func TestRollover(t *testing.T) {
	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)

	t.Run("future date unchanged", func(t *testing.T) {
		date := time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, date, Rollover(date, now))
	})

	t.Run("lapsed date advances one year", func(t *testing.T) {
		date := time.Date(2026, time.July, 28, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2027, time.July, 28, 0, 0, 0, 0, time.UTC), Rollover(date, now))
	})

	t.Run("date lapsed by several years catches up", func(t *testing.T) {
		date := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2027, time.January, 2, 0, 0, 0, 0, time.UTC), Rollover(date, now))
	})

	t.Run("today is not lapsed", func(t *testing.T) {
		date := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, date, Rollover(date, now))
	})
}
