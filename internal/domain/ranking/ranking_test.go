package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clube-hub/club-progress-hub/internal/domain/member"
)

func pathfinder(id, name, clubID, unitID string, age int) *member.Member {
	birthYear := time.Now().UTC().Year() - age
	m, err := member.NewMember(id, member.ClubID(clubID), member.UnitID(unitID), name,
		member.RolePathfinder, time.Date(birthYear, time.March, 12, 0, 0, 0, 0, time.UTC))
	if err != nil {
		panic(err)
	}
	return m
}

func counselor(id, name, clubID string) *member.Member {
	m, err := member.NewMember(id, member.ClubID(clubID), "", name,
		member.RoleCounselor, time.Date(1985, time.June, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		panic(err)
	}
	return m
}

func TestCompute_SortsDescendingWithStableTieBreak(t *testing.T) {
	now := time.Now().UTC()
	rows := []MemberPoints{
		{Member: pathfinder("m3", "Carla", "club1", "u1", 13), Points: 50},
		{Member: pathfinder("m1", "Ana", "club1", "u1", 13), Points: 80},
		{Member: pathfinder("m2", "Bruno", "club1", "u1", 13), Points: 80},
	}

	s := Compute(Params{Scope: ScopeClub, ScopeID: "club1"}, rows, now)
	require.Len(t, s.Entries, 3)

	// Ties resolve by name, so Ana precedes Bruno at 80 points.
	assert.Equal(t, "m1", s.Entries[0].MemberID)
	assert.Equal(t, 1, s.Entries[0].Position)
	assert.Equal(t, "m2", s.Entries[1].MemberID)
	assert.Equal(t, "m3", s.Entries[2].MemberID)
	assert.Equal(t, 210, s.TotalPoints)
}

func TestCompute_ExcludesAdultsAndInactive(t *testing.T) {
	now := time.Now().UTC()
	inactive := pathfinder("m9", "Left", "club1", "u1", 13)
	require.NoError(t, inactive.Deactivate())

	rows := []MemberPoints{
		{Member: pathfinder("m1", "Ana", "club1", "u1", 13), Points: 30},
		{Member: counselor("a1", "Counselor", "club1"), Points: 500},
		{Member: inactive, Points: 100},
	}

	s := Compute(Params{Scope: ScopeClub, ScopeID: "club1"}, rows, now)
	require.Len(t, s.Entries, 1)
	assert.Equal(t, "m1", s.Entries[0].MemberID)
	assert.Equal(t, 30, s.TotalPoints)
	assert.Equal(t, 1, s.EligibleCount)
	assert.InDelta(t, 30.0, s.Average, 0.0001)
}

func TestCompute_EmptyGroupAverageIsZero(t *testing.T) {
	now := time.Now().UTC()
	s := Compute(Params{Scope: ScopeUnit, ScopeID: "u-empty"}, nil, now)

	assert.Equal(t, 0, s.TotalPoints)
	assert.Equal(t, 0, s.EligibleCount)
	assert.Equal(t, 0.0, s.Average)
	assert.Empty(t, s.Entries)
}

func TestCompute_ZeroTotalContributionIsZero(t *testing.T) {
	now := time.Now().UTC()
	rows := []MemberPoints{
		{Member: pathfinder("m1", "Ana", "club1", "u1", 13), Points: 0},
		{Member: pathfinder("m2", "Bruno", "club1", "u1", 13), Points: 0},
	}

	s := Compute(Params{Scope: ScopeUnit, ScopeID: "u1"}, rows, now)
	require.Len(t, s.Entries, 2)
	assert.Equal(t, 0.0, s.Entries[0].Contribution)
	assert.Equal(t, 0.0, s.Entries[1].Contribution)
}

func TestCompute_ContributionPercentages(t *testing.T) {
	now := time.Now().UTC()
	rows := []MemberPoints{
		{Member: pathfinder("m1", "Ana", "club1", "u1", 13), Points: 75},
		{Member: pathfinder("m2", "Bruno", "club1", "u1", 13), Points: 25},
	}

	s := Compute(Params{Scope: ScopeUnit, ScopeID: "u1"}, rows, now)
	require.Len(t, s.Entries, 2)
	assert.InDelta(t, 0.75, s.Entries[0].Contribution, 0.0001)
	assert.InDelta(t, 0.25, s.Entries[1].Contribution, 0.0001)
}

func TestCompute_BracketFilter(t *testing.T) {
	now := time.Now().UTC()
	rows := []MemberPoints{
		{Member: pathfinder("m1", "Junior", "club1", "u1", 10), Points: 40},
		{Member: pathfinder("m2", "Senior", "club1", "u1", 15), Points: 60},
	}

	junior := Compute(Params{Scope: ScopeClub, ScopeID: "club1", Bracket: member.BracketJunior}, rows, now)
	require.Len(t, junior.Entries, 1)
	assert.Equal(t, "m1", junior.Entries[0].MemberID)

	senior := Compute(Params{Scope: ScopeClub, ScopeID: "club1", Bracket: member.BracketSenior}, rows, now)
	require.Len(t, senior.Entries, 1)
	assert.Equal(t, "m2", senior.Entries[0].MemberID)
}

func TestCompute_LimitKeepsTotalsIntact(t *testing.T) {
	now := time.Now().UTC()
	rows := []MemberPoints{
		{Member: pathfinder("m1", "Ana", "club1", "u1", 13), Points: 30},
		{Member: pathfinder("m2", "Bruno", "club1", "u1", 13), Points: 20},
		{Member: pathfinder("m3", "Carla", "club1", "u1", 13), Points: 10},
	}

	s := Compute(Params{Scope: ScopeClub, ScopeID: "club1", Limit: 2}, rows, now)
	assert.Len(t, s.Entries, 2)
	// Totals still reflect every eligible member, not just the page.
	assert.Equal(t, 60, s.TotalPoints)
	assert.Equal(t, 3, s.EligibleCount)
}

func TestBracketBoundaryBelongsToJunior(t *testing.T) {
	now := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	boundary := time.Date(2014, time.December, 31, 0, 0, 0, 0, time.UTC) // turns 12 in 2026
	assert.Equal(t, member.BracketJunior, member.BracketFor(boundary, now))

	older := time.Date(2013, time.January, 1, 0, 0, 0, 0, time.UTC) // turns 13 in 2026
	assert.Equal(t, member.BracketSenior, member.BracketFor(older, now))
}

func TestCompareGroups(t *testing.T) {
	groups := []GroupTotal{
		{GroupID: "club-b", TotalPoints: 100, EligibleCount: 4, Average: 25},
		{GroupID: "club-a", TotalPoints: 90, EligibleCount: 3, Average: 30},
		{GroupID: "club-c", TotalPoints: 60, EligibleCount: 2, Average: 30},
	}

	sorted := CompareGroups(groups)
	require.Len(t, sorted, 3)
	// Equal averages fall back to total points.
	assert.Equal(t, "club-a", sorted[0].GroupID)
	assert.Equal(t, "club-c", sorted[1].GroupID)
	assert.Equal(t, "club-b", sorted[2].GroupID)
}
