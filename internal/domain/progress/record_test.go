package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clube-hub/club-progress-hub/internal/domain/curriculum"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

func TestRecord_ApproveFromPending(t *testing.T) {
	now := time.Now().UTC()
	rec := NewRecord("member1", "item1", Answer{Text: "my answer"}, now)

	err := rec.Approve("reviewer1", now)
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, rec.Status)
	assert.Equal(t, "reviewer1", rec.ReviewedBy)
	assert.Equal(t, now, rec.ReviewedAt)
}

func TestRecord_ApproveTwiceRejected(t *testing.T) {
	now := time.Now().UTC()
	rec := NewRecord("member1", "item1", Answer{Text: "my answer"}, now)

	require.NoError(t, rec.Approve("reviewer1", now))

	err := rec.Approve("reviewer1", now)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestRecord_SelfReviewForbidden(t *testing.T) {
	now := time.Now().UTC()
	rec := NewRecord("member1", "item1", Answer{Text: "answer"}, now)

	err := rec.Approve("member1", now)
	assert.ErrorIs(t, err, shared.ErrNotAuthorized)

	err = rec.Reject("member1", "bad", now)
	assert.ErrorIs(t, err, shared.ErrNotAuthorized)
}

func TestRecord_RejectRequiresReason(t *testing.T) {
	now := time.Now().UTC()
	rec := NewRecord("member1", "item1", Answer{Text: "answer"}, now)

	err := rec.Reject("reviewer1", "   ", now)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	err = rec.Reject("reviewer1", "incomplete answer", now)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rec.Status)
	assert.Equal(t, "incomplete answer", rec.RejectionReason)
}

func TestRecord_ResubmissionOverwritesRejected(t *testing.T) {
	now := time.Now().UTC()
	rec := NewRecord("member1", "item1", Answer{Text: "first try"}, now)
	require.NoError(t, rec.Reject("reviewer1", "too short", now))

	later := now.Add(time.Hour)
	err := rec.Submit(Answer{Text: "second, longer try"}, later)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, "second, longer try", rec.Answer.Text)
	assert.Empty(t, rec.RejectionReason)
	assert.Equal(t, later, rec.SubmittedAt)
}

func TestRecord_SubmitFrozenAfterApproval(t *testing.T) {
	now := time.Now().UTC()
	rec := NewRecord("member1", "item1", Answer{Text: "answer"}, now)
	require.NoError(t, rec.Approve("reviewer1", now))

	err := rec.Submit(Answer{Text: "changed my mind"}, now)
	assert.ErrorIs(t, err, shared.ErrAlreadyProcessed)
	assert.Equal(t, "answer", rec.Answer.Text)
}

func TestRecord_RevokeOnlyFromApproved(t *testing.T) {
	now := time.Now().UTC()
	rec := NewRecord("member1", "item1", Answer{Text: "answer"}, now)

	err := rec.Revoke("admin1", now)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	require.NoError(t, rec.Approve("reviewer1", now))
	require.NoError(t, rec.Revoke("admin1", now))
	assert.Equal(t, StatusPending, rec.Status)

	// After a revoke the record is pending again and can be re-approved.
	require.NoError(t, rec.Approve("reviewer1", now))
	assert.Equal(t, StatusApproved, rec.Status)
}

func TestAnswer_MatchesType(t *testing.T) {
	assert.True(t, Answer{}.MatchesType(curriculum.AnswerNone))
	assert.False(t, Answer{}.MatchesType(curriculum.AnswerText))
	assert.True(t, Answer{Text: "hello"}.MatchesType(curriculum.AnswerText))
	assert.False(t, Answer{Text: "hello"}.MatchesType(curriculum.AnswerBoth))
	assert.True(t, Answer{Text: "hello", FileRef: "s3://bucket/key"}.MatchesType(curriculum.AnswerBoth))
	assert.False(t, Answer{FileRef: "s3://bucket/key"}.MatchesType(curriculum.AnswerQuiz))
	assert.True(t, Answer{Quiz: map[string]string{"q1": "a"}}.MatchesType(curriculum.AnswerQuiz))
}

func TestEvaluateCompletion(t *testing.T) {
	now := time.Now().UTC()
	items := []string{"r1", "r2", "r3"}

	approved := func(item string) *Record {
		rec := NewRecord("m1", item, Answer{Text: "ok"}, now)
		_ = rec.Approve("rev1", now)
		return rec
	}

	t.Run("missing record means in progress", func(t *testing.T) {
		records := map[string]*Record{"r1": approved("r1")}
		assert.Equal(t, CompletionInProgress, EvaluateCompletion(items, records))
	})

	t.Run("all pending means waiting approval", func(t *testing.T) {
		records := map[string]*Record{
			"r1": NewRecord("m1", "r1", Answer{Text: "a"}, now),
			"r2": NewRecord("m1", "r2", Answer{Text: "b"}, now),
			"r3": NewRecord("m1", "r3", Answer{Text: "c"}, now),
		}
		assert.Equal(t, CompletionWaitingApproval, EvaluateCompletion(items, records))
	})

	t.Run("rejected requirement means in progress", func(t *testing.T) {
		rejected := NewRecord("m1", "r2", Answer{Text: "b"}, now)
		_ = rejected.Reject("rev1", "redo", now)
		records := map[string]*Record{
			"r1": approved("r1"),
			"r2": rejected,
			"r3": approved("r3"),
		}
		assert.Equal(t, CompletionInProgress, EvaluateCompletion(items, records))
	})

	t.Run("all approved means completed", func(t *testing.T) {
		records := map[string]*Record{
			"r1": approved("r1"),
			"r2": approved("r2"),
			"r3": approved("r3"),
		}
		assert.Equal(t, CompletionCompleted, EvaluateCompletion(items, records))
	})

	t.Run("no requirements never completes", func(t *testing.T) {
		assert.Equal(t, CompletionInProgress, EvaluateCompletion(nil, nil))
	})
}

func TestCompletion_Transitions(t *testing.T) {
	now := time.Now().UTC()
	c := NewCompletion("m1", "s1")

	assert.True(t, c.Complete(now))
	assert.Equal(t, CompletionCompleted, c.Status)
	assert.Equal(t, now, c.AwardedAt)

	// Idempotent: completing again is a no-op.
	assert.False(t, c.Complete(now.Add(time.Hour)))
	assert.Equal(t, now, c.AwardedAt)

	assert.True(t, c.Revert())
	assert.Equal(t, CompletionInProgress, c.Status)
	assert.True(t, c.AwardedAt.IsZero())
	assert.False(t, c.Revert())
}

func TestCompletion_AwardDirectly(t *testing.T) {
	now := time.Now().UTC()
	c := NewCompletion("m1", "s1")

	require.NoError(t, c.AwardDirectly("director1", now))
	assert.Equal(t, CompletionCompleted, c.Status)
	assert.True(t, c.AwardedDirectly)
	assert.Equal(t, "director1", c.AwardedBy)

	err := c.AwardDirectly("director1", now)
	assert.ErrorIs(t, err, shared.ErrAlreadyProcessed)
}
