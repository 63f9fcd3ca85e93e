package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowClauses(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("both bounds", func(t *testing.T) {
		clause, args := windowClauses("created_at", from, to, []interface{}{"pf-1"})
		assert.Equal(t, " AND created_at >= $2 AND created_at < $3", clause)
		assert.Equal(t, []interface{}{"pf-1", from, to}, args)
	})

	t.Run("open end", func(t *testing.T) {
		clause, args := windowClauses("created_at", from, time.Time{}, []interface{}{"pf-1"})
		assert.Equal(t, " AND created_at >= $2", clause)
		assert.Equal(t, []interface{}{"pf-1", from}, args)
	})

	t.Run("open start", func(t *testing.T) {
		clause, args := windowClauses("l.created_at", time.Time{}, to, nil)
		assert.Equal(t, " AND l.created_at < $1", clause)
		assert.Equal(t, []interface{}{to}, args)
	})

	t.Run("unbounded window adds nothing", func(t *testing.T) {
		clause, args := windowClauses("created_at", time.Time{}, time.Time{}, []interface{}{"pf-1"})
		assert.Empty(t, clause)
		assert.Equal(t, []interface{}{"pf-1"}, args)
	})
}
