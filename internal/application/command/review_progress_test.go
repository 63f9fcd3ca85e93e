package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clube-hub/club-progress-hub/internal/domain/curriculum"
	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/progress"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// testWorld wires the in-memory stores and handlers for one scenario.
type testWorld struct {
	uow        *memUnitOfWork
	members    *memMembers
	curriculum *memCurriculum
	assigns    *memAssignments
	events     *capturingPublisher

	submit *SubmitAnswerHandler
	review *ReviewProgressHandler
	revoke *RevokeApprovalHandler
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()

	members := newMemMembers(
		testMember("pf-1", member.RolePathfinder),
		testMember("pf-2", member.RolePathfinder),
		testMember("ins-1", member.RoleInstructor),
		testMember("dir-1", member.RoleDirector),
		testMember("adm-1", member.RoleRegionalAdmin),
	)
	uow := newMemUnitOfWork(members)
	cur := newMemCurriculum()
	assigns := newMemAssignments()
	events := &capturingPublisher{}
	auth := &roleAuthorizer{members: members}

	return &testWorld{
		uow:        uow,
		members:    members,
		curriculum: cur,
		assigns:    assigns,
		events:     events,
		submit:     NewSubmitAnswerHandler(uow, cur, assigns, events),
		review:     NewReviewProgressHandler(uow, cur, auth, events),
		revoke:     NewRevokeApprovalHandler(uow, cur, auth, events),
	}
}

func testMember(id string, role member.Role) *member.Member {
	m, err := member.NewMember(id, "club-1", "unit-1", "Member "+id, role,
		time.Date(2014, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		panic(err)
	}
	return m
}

func classItem(id string, points int) *curriculum.Item {
	return &curriculum.Item{
		ID:         id,
		LogicalID:  "logical-" + id,
		Kind:       curriculum.KindClassRequirement,
		ParentID:   "class-1",
		Name:       "Requirement " + id,
		PointValue: points,
		AnswerType: curriculum.AnswerText,
		Scope:      curriculum.ScopeGlobal,
		Active:     true,
	}
}

func specialtyItem(id, specialtyID string, points int) *curriculum.Item {
	return &curriculum.Item{
		ID:         id,
		LogicalID:  "logical-" + id,
		Kind:       curriculum.KindSpecialtyRequirement,
		ParentID:   specialtyID,
		Name:       "Requirement " + id,
		PointValue: points,
		AnswerType: curriculum.AnswerText,
		Scope:      curriculum.ScopeGlobal,
		Active:     true,
	}
}

func (w *testWorld) submitAnswer(t *testing.T, memberID, itemID string) {
	t.Helper()
	_, err := w.submit.Handle(context.Background(), SubmitAnswerCommand{
		MemberID: memberID,
		ItemID:   itemID,
		Text:     "my answer",
	})
	require.NoError(t, err)
}

func TestApproveGrantsPointsAndRevokeCompensates(t *testing.T) {
	w := newTestWorld(t)
	w.curriculum.addItem(classItem("req-a", 50))
	ctx := context.Background()

	w.submitAnswer(t, "pf-1", "req-a")

	res, err := w.review.Approve(ctx, ApproveCommand{
		ReviewerID: "ins-1", MemberID: "pf-1", ItemID: "req-a",
	})
	require.NoError(t, err)
	assert.Equal(t, progress.StatusApproved, res.Record.Status)
	assert.Equal(t, 50, res.PointsGranted)
	assert.Equal(t, 50, res.NewBalance)

	rev, err := w.revoke.Handle(ctx, RevokeApprovalCommand{
		ReviewerID: "ins-1", MemberID: "pf-1", ItemID: "req-a", Reason: "wrong evidence",
	})
	require.NoError(t, err)
	assert.Equal(t, 50, rev.PointsReversed)
	assert.Equal(t, 0, rev.NewBalance)

	// The original grant is still in the ledger next to its reversal.
	entries, err := w.uow.tx.ledger.GetByReference(ctx, "pf-1", "req-a")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, -50, entries[0].Amount)
	assert.Equal(t, entries[1].ID, entries[0].ReversesEntryID)

	// Record went back to pending and can be approved again.
	res, err = w.review.Approve(ctx, ApproveCommand{
		ReviewerID: "dir-1", MemberID: "pf-1", ItemID: "req-a",
	})
	require.NoError(t, err)
	assert.Equal(t, 50, res.NewBalance)
}

func TestApproveRejectsIllegalStates(t *testing.T) {
	w := newTestWorld(t)
	w.curriculum.addItem(classItem("req-a", 50))
	ctx := context.Background()

	t.Run("not started", func(t *testing.T) {
		_, err := w.review.Approve(ctx, ApproveCommand{
			ReviewerID: "ins-1", MemberID: "pf-1", ItemID: "req-a",
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	w.submitAnswer(t, "pf-1", "req-a")

	t.Run("self review", func(t *testing.T) {
		w.submitAnswer(t, "ins-1", "req-a")
		_, err := w.review.Approve(ctx, ApproveCommand{
			ReviewerID: "ins-1", MemberID: "ins-1", ItemID: "req-a",
		})
		assert.ErrorIs(t, err, shared.ErrSelfReview)
	})

	t.Run("pathfinder cannot review", func(t *testing.T) {
		_, err := w.review.Approve(ctx, ApproveCommand{
			ReviewerID: "pf-2", MemberID: "pf-1", ItemID: "req-a",
		})
		assert.ErrorIs(t, err, shared.ErrNotAuthorized)
	})

	t.Run("double approve", func(t *testing.T) {
		_, err := w.review.Approve(ctx, ApproveCommand{
			ReviewerID: "ins-1", MemberID: "pf-1", ItemID: "req-a",
		})
		require.NoError(t, err)

		_, err = w.review.Approve(ctx, ApproveCommand{
			ReviewerID: "dir-1", MemberID: "pf-1", ItemID: "req-a",
		})
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)

		// A failed second approval must not touch the balance.
		balance, _ := w.uow.tx.ledger.Balance(ctx, "pf-1")
		assert.Equal(t, 50, balance)
	})
}

func TestRejectRequiresReasonAndAllowsResubmission(t *testing.T) {
	w := newTestWorld(t)
	w.curriculum.addItem(classItem("req-a", 50))
	ctx := context.Background()

	w.submitAnswer(t, "pf-1", "req-a")

	_, err := w.review.Reject(ctx, RejectCommand{
		ReviewerID: "ins-1", MemberID: "pf-1", ItemID: "req-a",
	})
	assert.ErrorIs(t, err, shared.ErrRejectionReason)

	res, err := w.review.Reject(ctx, RejectCommand{
		ReviewerID: "ins-1", MemberID: "pf-1", ItemID: "req-a", Reason: "incomplete",
	})
	require.NoError(t, err)
	assert.Equal(t, progress.StatusRejected, res.Record.Status)
	assert.Equal(t, "incomplete", res.Record.RejectionReason)

	// Rejection grants nothing.
	balance, _ := w.uow.tx.ledger.Balance(ctx, "pf-1")
	assert.Equal(t, 0, balance)

	// Resubmission clears the rejection and returns to pending.
	out, err := w.submit.Handle(ctx, SubmitAnswerCommand{
		MemberID: "pf-1", ItemID: "req-a", Text: "better answer",
	})
	require.NoError(t, err)
	assert.True(t, out.Resubmission)
	assert.Equal(t, progress.StatusPending, out.Record.Status)
	assert.Empty(t, out.Record.RejectionReason)
}

func TestSpecialtyCompletionLifecycle(t *testing.T) {
	w := newTestWorld(t)
	w.curriculum.addSpecialty(&curriculum.Specialty{
		ID: "spec-1", Kind: curriculum.ParentSpecialty, Name: "First Aid",
	})
	w.curriculum.addItem(specialtyItem("r1", "spec-1", 30))
	w.curriculum.addItem(specialtyItem("r2", "spec-1", 20))
	ctx := context.Background()

	w.submitAnswer(t, "pf-1", "r1")
	w.submitAnswer(t, "pf-1", "r2")

	res, err := w.review.Approve(ctx, ApproveCommand{
		ReviewerID: "ins-1", MemberID: "pf-1", ItemID: "r1",
	})
	require.NoError(t, err)
	assert.False(t, res.SpecialtyCompleted)

	comp, err := w.uow.tx.completions.Get(ctx, "pf-1", "spec-1")
	require.NoError(t, err)
	assert.Equal(t, progress.CompletionWaitingApproval, comp.Status)

	// Approving the last outstanding requirement completes the specialty
	// in the same transaction.
	res, err = w.review.Approve(ctx, ApproveCommand{
		ReviewerID: "ins-1", MemberID: "pf-1", ItemID: "r2",
	})
	require.NoError(t, err)
	assert.True(t, res.SpecialtyCompleted)
	assert.Equal(t, 50, res.NewBalance)
	assert.Equal(t, 1, w.events.published(shared.EventSpecialtyCompleted))

	comp, _ = w.uow.tx.completions.Get(ctx, "pf-1", "spec-1")
	assert.Equal(t, progress.CompletionCompleted, comp.Status)

	// Revoking one requirement reverts the completion and its points.
	rev, err := w.revoke.Handle(ctx, RevokeApprovalCommand{
		ReviewerID: "dir-1", MemberID: "pf-1", ItemID: "r2",
	})
	require.NoError(t, err)
	assert.True(t, rev.CompletionReverted)
	assert.Equal(t, 30, rev.NewBalance)

	comp, _ = w.uow.tx.completions.Get(ctx, "pf-1", "spec-1")
	assert.Equal(t, progress.CompletionInProgress, comp.Status)
}

func TestCompletionUsesEffectiveSetWhenClubForkShadowsGlobal(t *testing.T) {
	w := newTestWorld(t)
	w.curriculum.addSpecialty(&curriculum.Specialty{
		ID: "spec-1", Kind: curriculum.ParentSpecialty, Name: "Knots",
	})
	w.curriculum.addItem(specialtyItem("r1", "spec-1", 30))

	// Клубный форк второго требования затеняет глобальную версию для
	// участников club-1: их программа - r1 и r2-club, глобальная r2
	// в действующий набор не входит.
	global := specialtyItem("r2-global", "spec-1", 20)
	global.LogicalID = "logical-r2"
	w.curriculum.addItem(global)

	fork := specialtyItem("r2-club", "spec-1", 20)
	fork.LogicalID = "logical-r2"
	fork.Scope = curriculum.ScopeClub
	fork.ScopeID = "club-1"
	w.curriculum.addItem(fork)

	ctx := context.Background()
	w.submitAnswer(t, "pf-1", "r1")
	w.submitAnswer(t, "pf-1", "r2-club")

	res, err := w.review.Approve(ctx, ApproveCommand{
		ReviewerID: "ins-1", MemberID: "pf-1", ItemID: "r1",
	})
	require.NoError(t, err)
	assert.False(t, res.SpecialtyCompleted)

	// Last effective requirement approved; the shadowed global version
	// must not keep the specialty incomplete.
	res, err = w.review.Approve(ctx, ApproveCommand{
		ReviewerID: "ins-1", MemberID: "pf-1", ItemID: "r2-club",
	})
	require.NoError(t, err)
	assert.True(t, res.SpecialtyCompleted)

	comp, err := w.uow.tx.completions.Get(ctx, "pf-1", "spec-1")
	require.NoError(t, err)
	assert.Equal(t, progress.CompletionCompleted, comp.Status)
}

func TestSubmitRequiresAssignmentWhenParentDemandsIt(t *testing.T) {
	w := newTestWorld(t)
	w.curriculum.addSpecialty(&curriculum.Specialty{
		ID: "spec-1", Kind: curriculum.ParentSpecialty, Name: "Astronomy",
		RequiresAssignment: true,
	})
	w.curriculum.addItem(specialtyItem("r1", "spec-1", 30))
	ctx := context.Background()

	_, err := w.submit.Handle(ctx, SubmitAnswerCommand{
		MemberID: "pf-1", ItemID: "r1", Text: "answer",
	})
	assert.ErrorIs(t, err, shared.ErrItemNotAssigned)

	require.NoError(t, w.assigns.Assign(ctx, &curriculum.Assignment{
		MemberID: "pf-1", SpecialtyID: "spec-1", AssignedBy: "ins-1",
	}))

	_, err = w.submit.Handle(ctx, SubmitAnswerCommand{
		MemberID: "pf-1", ItemID: "r1", Text: "answer",
	})
	assert.NoError(t, err)
}

func TestSubmitEnforcesWindowAndAnswerType(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	closed := classItem("req-closed", 10)
	closed.Kind = curriculum.KindEventRequirement
	closed.Window = curriculum.TimeWindow{
		StartsAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	w.curriculum.addItem(closed)
	w.curriculum.addItem(classItem("req-text", 10))

	_, err := w.submit.Handle(ctx, SubmitAnswerCommand{
		MemberID: "pf-1", ItemID: "req-closed", Text: "late",
		SubmittedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, shared.ErrItemOutsideWindow)

	_, err = w.submit.Handle(ctx, SubmitAnswerCommand{
		MemberID: "pf-1", ItemID: "req-text", FileRef: "s3://file",
	})
	assert.ErrorIs(t, err, shared.ErrAnswerRequired)
}

func TestSubmitRejectsInactiveMember(t *testing.T) {
	w := newTestWorld(t)
	w.curriculum.addItem(classItem("req-a", 50))
	ctx := context.Background()

	m, err := w.members.GetByID(ctx, "pf-2")
	require.NoError(t, err)
	require.NoError(t, m.Deactivate())
	require.NoError(t, w.members.Update(ctx, m))

	_, err = w.submit.Handle(ctx, SubmitAnswerCommand{
		MemberID: "pf-2", ItemID: "req-a", Text: "answer",
	})
	assert.ErrorIs(t, err, shared.ErrMemberNotActive)
}
