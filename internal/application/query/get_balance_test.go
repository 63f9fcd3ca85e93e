package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clube-hub/club-progress-hub/internal/domain/ledger"
	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// Фейки закрывают только методы, которые обработчик баланса реально
// зовёт; остальное добирается встроенным интерфейсом.
type fakeMembers struct {
	member.Repository
	known map[string]bool
}

func (f *fakeMembers) GetByID(_ context.Context, id string) (*member.Member, error) {
	if !f.known[id] {
		return nil, shared.ErrMemberNotFound
	}
	m, err := member.NewMember(id, "club-1", "unit-1", "Member "+id, member.RolePathfinder,
		time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		panic(err)
	}
	return m, nil
}

type fakeLedger struct {
	ledger.Repository
	balance   int
	windowSum int
	lastFrom  time.Time
	lastTo    time.Time
}

func (f *fakeLedger) Balance(_ context.Context, _ string) (int, error) {
	return f.balance, nil
}

func (f *fakeLedger) SumInWindow(_ context.Context, _ string, from, to time.Time) (int, error) {
	f.lastFrom, f.lastTo = from, to
	return f.windowSum, nil
}

func TestGetBalance(t *testing.T) {
	members := &fakeMembers{known: map[string]bool{"pf-1": true}}
	h := NewGetBalanceHandler(members, &fakeLedger{balance: 75})
	ctx := context.Background()

	balance, err := h.Balance(ctx, "pf-1")
	require.NoError(t, err)
	assert.Equal(t, 75, balance)

	_, err = h.Balance(ctx, "ghost")
	assert.ErrorIs(t, err, shared.ErrMemberNotFound)

	_, err = h.Balance(ctx, "")
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestGetBalancePointsInWindow(t *testing.T) {
	members := &fakeMembers{known: map[string]bool{"pf-1": true}}
	lg := &fakeLedger{balance: 75, windowSum: 20}
	h := NewGetBalanceHandler(members, lg)
	ctx := context.Background()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	points, err := h.PointsInWindow(ctx, "pf-1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 20, points)
	assert.Equal(t, from, lg.lastFrom)
	assert.Equal(t, to, lg.lastTo)

	// Half-open window: the zero bound reaches the store untouched,
	// it decides what "no limit" means.
	_, err = h.PointsInWindow(ctx, "pf-1", from, time.Time{})
	require.NoError(t, err)
	assert.True(t, lg.lastTo.IsZero())

	_, err = h.PointsInWindow(ctx, "ghost", from, to)
	assert.ErrorIs(t, err, shared.ErrMemberNotFound)

	_, err = h.PointsInWindow(ctx, "", from, to)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}
