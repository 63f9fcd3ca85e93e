package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/ranking"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

type fakeReader struct {
	rows        []ranking.MemberPoints
	windowRows  []ranking.MemberPoints
	groups      []ranking.GroupTotal
	scopeCalls  int
	windowCalls int
	lastFrom    time.Time
	lastTo      time.Time
}

func (r *fakeReader) MembersInScope(_ context.Context, _ ranking.Scope, _ string) ([]ranking.MemberPoints, error) {
	r.scopeCalls++
	return r.rows, nil
}

func (r *fakeReader) MembersInScopeWindow(_ context.Context, _ ranking.Scope, _ string, from, to time.Time) ([]ranking.MemberPoints, error) {
	r.windowCalls++
	r.lastFrom, r.lastTo = from, to
	return r.windowRows, nil
}

func (r *fakeReader) GroupTotals(_ context.Context, _ ranking.Scope, _ string) ([]ranking.GroupTotal, error) {
	return r.groups, nil
}

type fakeCache struct {
	stored *ranking.Standings
	puts   int
}

func (c *fakeCache) GetStandings(_ context.Context, _ ranking.Scope, _ string, _ member.AgeBracket) (*ranking.Standings, error) {
	return c.stored, nil
}

func (c *fakeCache) PutStandings(_ context.Context, s *ranking.Standings, _ member.AgeBracket, _ time.Duration) error {
	c.stored = s
	c.puts++
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, _, _ string) error {
	c.stored = nil
	return nil
}

func rankedMember(id string, points int) ranking.MemberPoints {
	m, err := member.NewMember(id, "club-1", "unit-1", "Member "+id, member.RolePathfinder,
		time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		panic(err)
	}
	return ranking.MemberPoints{Member: m, Points: points}
}

func TestGetRankingComputesAndCaches(t *testing.T) {
	reader := &fakeReader{rows: []ranking.MemberPoints{
		rankedMember("m1", 80),
		rankedMember("m2", 120),
	}}
	cache := &fakeCache{}
	h := NewGetRankingHandler(reader, cache)
	ctx := context.Background()

	params := ranking.Params{Scope: ranking.ScopeClub, ScopeID: "club-1"}

	s, err := h.Handle(ctx, params)
	require.NoError(t, err)
	require.Len(t, s.Entries, 2)
	assert.Equal(t, "m2", s.Entries[0].MemberID)
	assert.Equal(t, 200, s.TotalPoints)
	assert.Equal(t, 1, cache.puts)

	// Second call is served from cache.
	_, err = h.Handle(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.scopeCalls)
}

func TestGetRankingWindowBypassesCache(t *testing.T) {
	reader := &fakeReader{windowRows: []ranking.MemberPoints{rankedMember("m1", 10)}}
	cache := &fakeCache{}
	h := NewGetRankingHandler(reader, cache)

	params := ranking.Params{
		Scope:   ranking.ScopeClub,
		ScopeID: "club-1",
		Window: ranking.Window{
			From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	s, err := h.Handle(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 10, s.TotalPoints)
	assert.Equal(t, 1, reader.windowCalls)
	assert.Equal(t, 0, cache.puts)
	assert.Equal(t, params.Window.From, reader.lastFrom)
	assert.Equal(t, params.Window.To, reader.lastTo)
}

func TestGetRankingHalfOpenWindow(t *testing.T) {
	reader := &fakeReader{windowRows: []ranking.MemberPoints{rankedMember("m1", 10)}}
	cache := &fakeCache{}
	h := NewGetRankingHandler(reader, cache)

	// Только нижняя граница: окно всё равно считается заданным, верхняя
	// граница уходит в читатель нулевой и означает "без ограничения".
	params := ranking.Params{
		Scope:   ranking.ScopeClub,
		ScopeID: "club-1",
		Window: ranking.Window{
			From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	_, err := h.Handle(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.windowCalls)
	assert.Equal(t, 0, reader.scopeCalls)
	assert.Equal(t, 0, cache.puts)
	assert.Equal(t, params.Window.From, reader.lastFrom)
	assert.True(t, reader.lastTo.IsZero())
}

func TestGetRankingValidatesScope(t *testing.T) {
	h := NewGetRankingHandler(&fakeReader{}, nil)
	ctx := context.Background()

	_, err := h.Handle(ctx, ranking.Params{Scope: "galaxy"})
	assert.ErrorIs(t, err, shared.ErrInvalidRankingScope)

	// Non-global scopes need an identifier.
	_, err = h.Handle(ctx, ranking.Params{Scope: ranking.ScopeClub})
	assert.ErrorIs(t, err, shared.ErrInvalidRankingScope)
}

func TestGroupsOrderedByAverage(t *testing.T) {
	reader := &fakeReader{groups: []ranking.GroupTotal{
		{GroupID: "club-a", TotalPoints: 300, EligibleCount: 10, Average: 30},
		{GroupID: "club-b", TotalPoints: 200, EligibleCount: 4, Average: 50},
	}}
	h := NewGetRankingHandler(reader, nil)

	groups, err := h.Groups(context.Background(), ranking.ScopeMission, "mission-1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	// 50 avg beats 30 avg even with a lower total.
	assert.Equal(t, "club-b", groups[0].GroupID)
}
