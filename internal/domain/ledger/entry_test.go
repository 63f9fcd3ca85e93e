package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

func TestEntry_Validate(t *testing.T) {
	e := &Entry{
		ID:        "e1",
		MemberID:  "m1",
		Amount:    50,
		Source:    SourceRequirement,
		CreatedBy: "reviewer1",
		CreatedAt: time.Now().UTC(),
	}
	assert.NoError(t, e.Validate())

	zero := *e
	zero.Amount = 0
	assert.ErrorIs(t, zero.Validate(), shared.ErrInvalidInput)

	bad := *e
	bad.Source = "mystery"
	assert.ErrorIs(t, bad.Validate(), shared.ErrInvalidInput)

	anon := *e
	anon.CreatedBy = ""
	assert.ErrorIs(t, anon.Validate(), shared.ErrEmptyValue)
}

func TestEntry_InverseReferencesOriginal(t *testing.T) {
	now := time.Now().UTC()
	grant := &Entry{
		ID:          "e1",
		MemberID:    "m1",
		Amount:      50,
		Source:      SourceRequirement,
		ReferenceID: "m1/item1",
		CreatedBy:   "reviewer1",
		CreatedAt:   now,
	}

	inv := grant.Inverse("e2", "admin1", "approval revoked", now)
	require.NoError(t, inv.Validate())
	assert.Equal(t, -50, inv.Amount)
	assert.Equal(t, "e1", inv.ReversesEntryID)
	assert.Equal(t, "m1/item1", inv.ReferenceID)
	assert.Equal(t, SourceRequirement, inv.Source)

	// Grant plus inverse nets to nothing.
	assert.Equal(t, 0, Sum([]*Entry{grant, inv}))
}

func TestSourceForItemKind(t *testing.T) {
	assert.Equal(t, SourceRequirement, SourceForItemKind("class_requirement"))
	assert.Equal(t, SourceSpecialty, SourceForItemKind("specialty_requirement"))
	assert.Equal(t, SourceEvent, SourceForItemKind("event_requirement"))
}

func TestHistoryFilter_Matches(t *testing.T) {
	now := time.Now().UTC()
	e := &Entry{
		ID:        "e1",
		MemberID:  "m1",
		Amount:    10,
		Source:    SourceAttendance,
		CreatedBy: "counselor1",
		CreatedAt: now,
	}

	assert.True(t, HistoryFilter{}.Matches(e))
	assert.True(t, HistoryFilter{Source: SourceAttendance}.Matches(e))
	assert.False(t, HistoryFilter{Source: SourcePurchase}.Matches(e))
	assert.True(t, HistoryFilter{From: now.Add(-time.Hour), To: now.Add(time.Hour)}.Matches(e))
	assert.False(t, HistoryFilter{From: now.Add(time.Minute)}.Matches(e))
	assert.False(t, HistoryFilter{To: now}.Matches(e)) // To is exclusive
}
