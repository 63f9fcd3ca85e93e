package curriculum

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

func globalItem(id, logicalID string) *Item {
	return &Item{
		ID:         id,
		LogicalID:  logicalID,
		Kind:       KindClassRequirement,
		ParentID:   "class1",
		Name:       "Tie three knots",
		PointValue: 50,
		AnswerType: AnswerText,
		Scope:      ScopeGlobal,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
}

func clubFork(id, logicalID, clubID string) *Item {
	it := globalItem(id, logicalID)
	it.Scope = ScopeClub
	it.ScopeID = clubID
	it.PointValue = 30
	return it
}

func TestResolveEffective_ClubForkShadowsGlobal(t *testing.T) {
	versions := []*Item{
		globalItem("g1", "req-knots"),
		clubFork("c1", "req-knots", "club1"),
	}

	it, err := ResolveEffective(versions, "club1", "region1")
	require.NoError(t, err)
	assert.Equal(t, "c1", it.ID)
	assert.Equal(t, 30, it.PointValue)
}

func TestResolveEffective_OtherClubSeesGlobal(t *testing.T) {
	versions := []*Item{
		globalItem("g1", "req-knots"),
		clubFork("c1", "req-knots", "club1"),
	}

	it, err := ResolveEffective(versions, "club2", "region1")
	require.NoError(t, err)
	assert.Equal(t, "g1", it.ID)
}

func TestResolveEffective_DeletedForkFallsBackToGlobal(t *testing.T) {
	fork := clubFork("c1", "req-knots", "club1")
	fork.Active = false
	versions := []*Item{globalItem("g1", "req-knots"), fork}

	it, err := ResolveEffective(versions, "club1", "region1")
	require.NoError(t, err)
	assert.Equal(t, "g1", it.ID)
}

func TestResolveEffective_RegionBetweenClubAndGlobal(t *testing.T) {
	regional := globalItem("r1", "req-knots")
	regional.Scope = ScopeRegion
	regional.ScopeID = "region1"

	versions := []*Item{globalItem("g1", "req-knots"), regional}

	it, err := ResolveEffective(versions, "club1", "region1")
	require.NoError(t, err)
	assert.Equal(t, "r1", it.ID)

	versions = append(versions, clubFork("c1", "req-knots", "club1"))
	it, err = ResolveEffective(versions, "club1", "region1")
	require.NoError(t, err)
	assert.Equal(t, "c1", it.ID)
}

func TestResolveEffective_AmbiguousSameLevel(t *testing.T) {
	versions := []*Item{
		clubFork("c1", "req-knots", "club1"),
		clubFork("c2", "req-knots", "club1"),
	}

	_, err := ResolveEffective(versions, "club1", "region1")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestResolveEffective_NothingVisible(t *testing.T) {
	versions := []*Item{clubFork("c1", "req-knots", "club1")}

	_, err := ResolveEffective(versions, "club2", "region1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResolveEffectiveSet_OnePerLogicalRequirement(t *testing.T) {
	items := []*Item{
		globalItem("g1", "req-knots"),
		globalItem("g2", "req-fire"),
		clubFork("c2", "req-fire", "club1"),
	}

	effective, err := ResolveEffectiveSet(items, "club1", "region1")
	require.NoError(t, err)
	require.Len(t, effective, 2)
	assert.Equal(t, "g1", effective[0].ID)
	assert.Equal(t, "c2", effective[1].ID)

	// Another club never sees the fork.
	effective, err = ResolveEffectiveSet(items, "club2", "region1")
	require.NoError(t, err)
	require.Len(t, effective, 2)
	assert.Equal(t, "g2", effective[1].ID)
}

func TestResolveEffectiveSet_SkipsInvisibleRequirement(t *testing.T) {
	items := []*Item{
		globalItem("g1", "req-knots"),
		clubFork("c2", "req-fire", "club1"),
	}

	effective, err := ResolveEffectiveSet(items, "club2", "region1")
	require.NoError(t, err)
	require.Len(t, effective, 1)
	assert.Equal(t, "g1", effective[0].ID)
}

func TestResolveEffectiveSet_PropagatesAmbiguity(t *testing.T) {
	items := []*Item{
		clubFork("c1", "req-knots", "club1"),
		clubFork("c2", "req-knots", "club1"),
	}

	_, err := ResolveEffectiveSet(items, "club1", "region1")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestItem_SubmittableWindow(t *testing.T) {
	now := time.Now().UTC()
	it := globalItem("g1", "req-camp")
	it.Kind = KindEventRequirement
	it.Window = TimeWindow{StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)}

	assert.True(t, it.SubmittableAt(now))
	assert.False(t, it.SubmittableAt(now.Add(2*time.Hour)))
	assert.False(t, it.SubmittableAt(now.Add(-2*time.Hour)))

	it.Active = false
	assert.False(t, it.SubmittableAt(now))
}

func TestItem_Validate(t *testing.T) {
	it := globalItem("g1", "req-knots")
	assert.NoError(t, it.Validate())

	it.PointValue = -5
	assert.ErrorIs(t, it.Validate(), shared.ErrValueOutOfRange)

	it = clubFork("c1", "req-knots", "")
	assert.ErrorIs(t, it.Validate(), shared.ErrEmptyValue)
}
