package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfWeekIsMonday(t *testing.T) {
	// Sunday 2026-01-11 in club timezone
	sunday := time.Date(2026, 1, 11, 15, 0, 0, 0, ClubTZ)
	start := StartOfWeek(sunday)

	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, ClubTZ), start)
}

func TestPeriodWindow(t *testing.T) {
	now := time.Date(2026, 3, 18, 14, 30, 0, 0, ClubTZ) // Wednesday

	t.Run("day", func(t *testing.T) {
		from, to, err := PeriodWindow("day", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 18, 0, 0, 0, 0, ClubTZ), from)
		assert.True(t, to.After(now))
		assert.True(t, IsSameDay(from, to))
	})

	t.Run("week starts monday", func(t *testing.T) {
		from, _, err := PeriodWindow("week", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, ClubTZ), from)
	})

	t.Run("month", func(t *testing.T) {
		from, to, err := PeriodWindow("month", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, ClubTZ), from)
		assert.Equal(t, time.March, to.Month())
		assert.Equal(t, 31, to.Day())
	})

	t.Run("year runs through today", func(t *testing.T) {
		from, to, err := PeriodWindow("year", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, ClubTZ), from)
		assert.True(t, IsSameDay(to, now))
	})

	t.Run("unknown period", func(t *testing.T) {
		_, _, err := PeriodWindow("quarter", now)
		assert.ErrorIs(t, err, ErrUnknownPeriod)
	})
}

func TestClubTimezoneConversions(t *testing.T) {
	// UTC midnight is still the previous day in club timezone
	utcMidnight := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	local := ToClub(utcMidnight)

	assert.Equal(t, 9, local.Day())
	assert.True(t, utcMidnight.Equal(ToUTC(local)))
}
