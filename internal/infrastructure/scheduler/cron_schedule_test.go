package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronSchedule(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"every five minutes", "*/5 * * * *", false},
		{"daily at three", "0 3 * * *", false},
		{"monday midnight", "0 0 * * 1", false},
		{"range", "0 9-17 * * *", false},
		{"list", "0 0,12 * * *", false},
		{"too few fields", "* * * *", true},
		{"too many fields", "* * * * * *", true},
		{"out of range minute", "60 * * * *", true},
		{"garbage", "x * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCronSchedule(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCronScheduleNext(t *testing.T) {
	// Wednesday 2026-01-07 10:30 UTC
	base := time.Date(2026, 1, 7, 10, 30, 0, 0, time.UTC)

	t.Run("every five minutes", func(t *testing.T) {
		cs, err := ParseCronSchedule("*/5 * * * *")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 7, 10, 35, 0, 0, time.UTC), cs.Next(base))
	})

	t.Run("daily at three runs next morning", func(t *testing.T) {
		cs, err := ParseCronSchedule("0 3 * * *")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 8, 3, 0, 0, 0, time.UTC), cs.Next(base))
	})

	t.Run("weekday match skips to monday", func(t *testing.T) {
		cs, err := ParseCronSchedule("0 0 * * 1")
		require.NoError(t, err)
		next := cs.Next(base)
		assert.Equal(t, time.Monday, next.Weekday())
		assert.Equal(t, time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), next)
	})

	t.Run("next whole minute when everything matches", func(t *testing.T) {
		cs, err := ParseCronSchedule("* * * * *")
		require.NoError(t, err)
		assert.Equal(t, base.Add(time.Minute), cs.Next(base))
	})
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(15 * time.Minute)
	base := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, base.Add(15*time.Minute), s.Next(base))
	assert.Equal(t, "@every 15m0s", s.String())
}
