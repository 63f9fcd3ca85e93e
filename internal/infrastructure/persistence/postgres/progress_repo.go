package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/progress"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements progress.Repository for PostgreSQL.
type ProgressRepository struct {
	db Querier
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(db Querier) *ProgressRepository {
	return &ProgressRepository{db: db}
}

const progressColumns = `member_id, item_id, status, answer_text, answer_file_ref,
	   quiz_answers, rejection_reason, reviewed_by, reviewed_at, submitted_at, version`

// Get returns a record by (member, item) key.
func (r *ProgressRepository) Get(ctx context.Context, memberID, itemID string) (*progress.Record, error) {
	query := `SELECT ` + progressColumns + ` FROM progress_records WHERE member_id = $1 AND item_id = $2`

	row := r.db.QueryRow(ctx, query, memberID, itemID)
	return scanProgressRecord(row)
}

// GetForUpdate returns a record with a row lock.
// Конкурирующие approve/revoke на одном ключе сериализуются на этой
// блокировке до конца транзакции.
func (r *ProgressRepository) GetForUpdate(ctx context.Context, memberID, itemID string) (*progress.Record, error) {
	query := `SELECT ` + progressColumns + ` FROM progress_records WHERE member_id = $1 AND item_id = $2 FOR UPDATE`

	row := r.db.QueryRow(ctx, query, memberID, itemID)
	return scanProgressRecord(row)
}

// Upsert inserts or updates a record by its key pair.
func (r *ProgressRepository) Upsert(ctx context.Context, rec *progress.Record) error {
	query := `
		INSERT INTO progress_records (
			member_id, item_id, status, answer_text, answer_file_ref,
			quiz_answers, rejection_reason, reviewed_by, reviewed_at, submitted_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (member_id, item_id) DO UPDATE SET
			status = EXCLUDED.status,
			answer_text = EXCLUDED.answer_text,
			answer_file_ref = EXCLUDED.answer_file_ref,
			quiz_answers = EXCLUDED.quiz_answers,
			rejection_reason = EXCLUDED.rejection_reason,
			reviewed_by = EXCLUDED.reviewed_by,
			reviewed_at = EXCLUDED.reviewed_at,
			submitted_at = EXCLUDED.submitted_at,
			version = EXCLUDED.version
	`

	quizJSON, err := marshalQuiz(rec.Answer.Quiz)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query,
		rec.MemberID,
		rec.ItemID,
		string(rec.Status),
		rec.Answer.Text,
		rec.Answer.FileRef,
		quizJSON,
		rec.RejectionReason,
		rec.ReviewedBy,
		nullableTime(rec.ReviewedAt),
		nullableTime(rec.SubmittedAt),
		rec.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress record: %w", err)
	}
	return nil
}

// GetByMemberAndItems returns a member's records for a list of items.
// Отсутствующие пары означают NOT_STARTED и в карту не попадают.
func (r *ProgressRepository) GetByMemberAndItems(ctx context.Context, memberID string, itemIDs []string) (map[string]*progress.Record, error) {
	result := make(map[string]*progress.Record, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + progressColumns + ` FROM progress_records WHERE member_id = $1 AND item_id = ANY($2)`

	rows, err := r.db.Query(ctx, query, memberID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanProgressRecord(rows)
		if err != nil {
			return nil, err
		}
		result[rec.ItemID] = rec
	}
	return result, rows.Err()
}

// GetByMember returns all records of a member.
func (r *ProgressRepository) GetByMember(ctx context.Context, memberID string) ([]*progress.Record, error) {
	query := `SELECT ` + progressColumns + ` FROM progress_records WHERE member_id = $1 ORDER BY item_id`

	rows, err := r.db.Query(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query member progress: %w", err)
	}
	defer rows.Close()

	var records []*progress.Record
	for rows.Next() {
		rec, err := scanProgressRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete permanently removes a record. Only deleteHistory calls this.
func (r *ProgressRepository) Delete(ctx context.Context, memberID, itemID string) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM progress_records WHERE member_id = $1 AND item_id = $2`,
		memberID, itemID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete progress record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrProgressNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanProgressRecord(row pgx.Row) (*progress.Record, error) {
	var rec progress.Record
	var status string
	var quizJSON []byte
	var reviewedAt, submittedAt *time.Time

	err := row.Scan(
		&rec.MemberID,
		&rec.ItemID,
		&status,
		&rec.Answer.Text,
		&rec.Answer.FileRef,
		&quizJSON,
		&rec.RejectionReason,
		&rec.ReviewedBy,
		&reviewedAt,
		&submittedAt,
		&rec.Version,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to scan progress record: %w", err)
	}

	rec.Status = progress.Status(status)
	rec.ReviewedAt = timeValue(reviewedAt)
	rec.SubmittedAt = timeValue(submittedAt)
	if len(quizJSON) > 0 {
		if err := json.Unmarshal(quizJSON, &rec.Answer.Quiz); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quiz answers: %w", err)
		}
	}
	return &rec, nil
}

func marshalQuiz(quiz map[string]string) ([]byte, error) {
	if len(quiz) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(quiz)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quiz answers: %w", err)
	}
	return data, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
