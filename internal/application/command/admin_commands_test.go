package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clube-hub/club-progress-hub/internal/domain/curriculum"
	"github.com/clube-hub/club-progress-hub/internal/domain/ledger"
	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/progress"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

func TestAwardSpecialtyDirectly(t *testing.T) {
	w := newTestWorld(t)
	w.curriculum.addSpecialty(&curriculum.Specialty{
		ID: "spec-1", Kind: curriculum.ParentSpecialty, Name: "Orienteering",
	})
	auth := &roleAuthorizer{members: w.members}
	h := NewAwardSpecialtyHandler(w.uow, w.curriculum, auth, w.events)
	ctx := context.Background()

	err := h.Handle(ctx, AwardSpecialtyCommand{
		ActorID: "dir-1", MemberID: "pf-1", SpecialtyID: "spec-1",
		Reason: "completed at summer camp",
	})
	require.NoError(t, err)

	comp, err := w.uow.tx.completions.Get(ctx, "pf-1", "spec-1")
	require.NoError(t, err)
	assert.Equal(t, progress.CompletionCompleted, comp.Status)
	assert.True(t, comp.AwardedDirectly)
	assert.Equal(t, "dir-1", comp.AwardedBy)

	// No requirement points were granted.
	balance, _ := w.uow.tx.ledger.Balance(ctx, "pf-1")
	assert.Equal(t, 0, balance)

	// The award is in the admin audit trail.
	actions, err := w.uow.tx.audit.GetByActor(ctx, "dir-1", 10)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "award_specialty", actions[0].Action)

	// Awarding twice is an error, not a silent success.
	err = h.Handle(ctx, AwardSpecialtyCommand{
		ActorID: "dir-1", MemberID: "pf-1", SpecialtyID: "spec-1",
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyProcessed)
}

func TestBulkAwardReportsPerMemberOutcomes(t *testing.T) {
	w := newTestWorld(t)
	auth := &roleAuthorizer{members: w.members}
	h := NewBulkAwardHandler(w.uow, auth, w.events)
	ctx := context.Background()

	m, err := w.members.GetByID(ctx, "pf-2")
	require.NoError(t, err)
	require.NoError(t, m.Deactivate())
	require.NoError(t, w.members.Update(ctx, m))

	res, err := h.Handle(ctx, BulkAwardCommand{
		ActorID:    "dir-1",
		MemberIDs:  []string{"pf-1", "pf-2", "missing", "pf-1"},
		Amount:     15,
		ActivityID: "activity-7",
		Reason:     "cleanup day",
	})
	require.NoError(t, err)

	// Duplicate pf-1 collapsed: three outcomes, one success each way.
	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 2, res.Failed)

	assert.NoError(t, res.Outcomes[0].Err)
	assert.Equal(t, 15, res.Outcomes[0].NewBalance)
	assert.ErrorIs(t, res.Outcomes[1].Err, shared.ErrMemberNotActive)
	assert.ErrorIs(t, res.Outcomes[2].Err, shared.ErrNotFound)

	// One failure does not roll back the others.
	balance, _ := w.uow.tx.ledger.Balance(ctx, "pf-1")
	assert.Equal(t, 15, balance)
}

func TestAdjustPointsAndResetBalance(t *testing.T) {
	w := newTestWorld(t)
	auth := &roleAuthorizer{members: w.members}
	h := NewAdjustPointsHandler(w.uow, auth, w.events)
	ctx := context.Background()

	balance, err := h.Adjust(ctx, AdjustPointsCommand{
		ActorID: "dir-1", MemberID: "pf-1", Amount: 40, Reason: "import correction",
	})
	require.NoError(t, err)
	assert.Equal(t, 40, balance)

	balance, err = h.Adjust(ctx, AdjustPointsCommand{
		ActorID: "dir-1", MemberID: "pf-1", Amount: -10, Reason: "double count",
	})
	require.NoError(t, err)
	assert.Equal(t, 30, balance)

	_, err = h.Adjust(ctx, AdjustPointsCommand{
		ActorID: "dir-1", MemberID: "pf-1", Amount: 0, Reason: "noop",
	})
	assert.ErrorIs(t, err, shared.ErrZeroAmount)

	t.Run("reset requires purge privilege", func(t *testing.T) {
		err := h.ResetBalance(ctx, ResetBalanceCommand{
			ActorID: "dir-1", MemberID: "pf-1", Reason: "season rollover",
		})
		assert.ErrorIs(t, err, shared.ErrNotAuthorized)
	})

	t.Run("reset writes an offsetting entry", func(t *testing.T) {
		entriesBefore := len(w.uow.tx.ledger.entries)

		err := h.ResetBalance(ctx, ResetBalanceCommand{
			ActorID: "adm-1", MemberID: "pf-1", Reason: "season rollover",
		})
		require.NoError(t, err)

		balance, _ := w.uow.tx.ledger.Balance(ctx, "pf-1")
		assert.Equal(t, 0, balance)

		require.Len(t, w.uow.tx.ledger.entries, entriesBefore+1)
		last := w.uow.tx.ledger.entries[len(w.uow.tx.ledger.entries)-1]
		assert.Equal(t, ledger.SourceBalanceReset, last.Source)
		assert.Equal(t, -30, last.Amount)

		sum, _ := w.uow.tx.ledger.SumEntries(ctx, "pf-1")
		assert.Equal(t, 0, sum)

		actions, _ := w.uow.tx.audit.GetByActor(ctx, "adm-1", 10)
		require.Len(t, actions, 1)
		assert.Equal(t, "reset_balance", actions[0].Action)
	})

	t.Run("reset survives balance recomputation", func(t *testing.T) {
		res, err := NewRecomputeBalanceHandler(w.uow, w.events).Handle(ctx, "pf-1")
		require.NoError(t, err)
		assert.False(t, res.Drifted)
		assert.Equal(t, 0, res.ActualBalance)

		balance, _ := w.uow.tx.ledger.Balance(ctx, "pf-1")
		assert.Equal(t, 0, balance)
	})
}

func TestDeleteHistoryRemovesRecordAndPoints(t *testing.T) {
	w := newTestWorld(t)
	w.curriculum.addItem(classItem("req-a", 50))
	auth := &roleAuthorizer{members: w.members}
	h := NewDeleteHistoryHandler(w.uow, auth, w.events)
	ctx := context.Background()

	w.submitAnswer(t, "pf-1", "req-a")
	_, err := w.review.Approve(ctx, ApproveCommand{
		ReviewerID: "ins-1", MemberID: "pf-1", ItemID: "req-a",
	})
	require.NoError(t, err)

	t.Run("director lacks privilege", func(t *testing.T) {
		_, err := h.Handle(ctx, DeleteHistoryCommand{
			ActorID: "dir-1", MemberID: "pf-1", ItemID: "req-a", Reason: "gdpr request",
		})
		assert.ErrorIs(t, err, shared.ErrNotAuthorized)
	})

	res, err := h.Handle(ctx, DeleteHistoryCommand{
		ActorID: "adm-1", MemberID: "pf-1", ItemID: "req-a", Reason: "gdpr request",
	})
	require.NoError(t, err)
	assert.Equal(t, 50, res.PointsRemoved)

	_, err = w.uow.tx.progress.Get(ctx, "pf-1", "req-a")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	balance, _ := w.uow.tx.ledger.Balance(ctx, "pf-1")
	assert.Equal(t, 0, balance)

	actions, _ := w.uow.tx.audit.GetByActor(ctx, "adm-1", 10)
	require.Len(t, actions, 1)
	assert.Equal(t, "delete_history", actions[0].Action)
	assert.Equal(t, 1, w.events.published(shared.EventHistoryDeleted))
}

func TestRecomputeBalanceDetectsDrift(t *testing.T) {
	w := newTestWorld(t)
	h := NewRecomputeBalanceHandler(w.uow, w.events)
	ctx := context.Background()

	_, err := w.uow.tx.ledger.Append(ctx, testEntry("pf-1", 30))
	require.NoError(t, err)

	t.Run("clean balance", func(t *testing.T) {
		res, err := h.Handle(ctx, "pf-1")
		require.NoError(t, err)
		assert.False(t, res.Drifted)
		assert.Equal(t, 30, res.ActualBalance)
	})

	t.Run("drifted cache is corrected and flagged", func(t *testing.T) {
		w.uow.tx.ledger.balances["pf-1"] = 99

		res, err := h.Handle(ctx, "pf-1")
		require.NoError(t, err)
		assert.True(t, res.Drifted)
		assert.Equal(t, 99, res.CachedBalance)
		assert.Equal(t, 30, res.ActualBalance)

		balance, _ := w.uow.tx.ledger.Balance(ctx, "pf-1")
		assert.Equal(t, 30, balance)

		actions, _ := w.uow.tx.audit.GetByActor(ctx, "system", 10)
		require.Len(t, actions, 1)
		assert.Equal(t, "balance_drift_corrected", actions[0].Action)
		assert.Equal(t, 1, w.events.published(shared.EventDriftDetected))
	})
}

func TestRegisterMemberHashesPassword(t *testing.T) {
	members := newMemMembers()
	events := &capturingPublisher{}
	h := NewRegisterMemberHandler(members, events)
	ctx := context.Background()

	res, err := h.Handle(ctx, RegisterMemberCommand{
		ClubID:      "club-1",
		UnitID:      "unit-1",
		DisplayName: "Ana Souza",
		Role:        string(member.RolePathfinder),
		BirthDate:   time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC),
		Password:    "correct horse",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Member.ID)
	assert.NotEqual(t, "correct horse", res.Member.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(res.Member.PasswordHash), []byte("correct horse")))
	assert.Equal(t, 1, events.published(shared.EventMemberRegistered))

	_, err = h.Handle(ctx, RegisterMemberCommand{
		ClubID: "club-1", DisplayName: "Short", Role: string(member.RolePathfinder),
		BirthDate: time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC), Password: "short",
	})
	assert.Error(t, err)
}

func TestManageMemberLifecycle(t *testing.T) {
	w := newTestWorld(t)
	auth := &roleAuthorizer{members: w.members}
	h := NewManageMemberHandler(w.members, auth, w.events)
	ctx := context.Background()

	require.NoError(t, h.Deactivate(ctx, "dir-1", "pf-1"))
	m, _ := w.members.GetByID(ctx, "pf-1")
	assert.Equal(t, member.StatusInactive, m.Status)

	// Deactivating twice is an invalid transition.
	assert.ErrorIs(t, h.Deactivate(ctx, "dir-1", "pf-1"), shared.ErrInvalidTransition)

	require.NoError(t, h.Reactivate(ctx, "dir-1", "pf-1"))
	m, _ = w.members.GetByID(ctx, "pf-1")
	assert.Equal(t, member.StatusActive, m.Status)

	require.NoError(t, h.Transfer(ctx, "dir-1", "pf-1", "club-2", "unit-9"))
	m, _ = w.members.GetByID(ctx, "pf-1")
	assert.Equal(t, member.ClubID("club-2"), m.ClubID)
	assert.Equal(t, member.UnitID("unit-9"), m.UnitID)
}
