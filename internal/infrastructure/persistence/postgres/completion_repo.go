package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/progress"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CompletionRepository implements progress.CompletionRepository for PostgreSQL.
type CompletionRepository struct {
	db Querier
}

// NewCompletionRepository creates a new CompletionRepository.
func NewCompletionRepository(db Querier) *CompletionRepository {
	return &CompletionRepository{db: db}
}

const completionColumns = `member_id, specialty_id, status, awarded_at, awarded_directly, awarded_by`

// Get returns a completion fact.
// Если строки нет, возвращает новый факт в состоянии IN_PROGRESS.
func (r *CompletionRepository) Get(ctx context.Context, memberID, specialtyID string) (*progress.Completion, error) {
	query := `SELECT ` + completionColumns + ` FROM specialty_completions WHERE member_id = $1 AND specialty_id = $2`

	row := r.db.QueryRow(ctx, query, memberID, specialtyID)
	c, err := scanCompletion(row)
	if err != nil {
		if IsNoRows(err) {
			return progress.NewCompletion(memberID, specialtyID), nil
		}
		return nil, err
	}
	return c, nil
}

// Upsert stores a completion fact.
func (r *CompletionRepository) Upsert(ctx context.Context, c *progress.Completion) error {
	query := `
		INSERT INTO specialty_completions (
			member_id, specialty_id, status, awarded_at, awarded_directly, awarded_by
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (member_id, specialty_id) DO UPDATE SET
			status = EXCLUDED.status,
			awarded_at = EXCLUDED.awarded_at,
			awarded_directly = EXCLUDED.awarded_directly,
			awarded_by = EXCLUDED.awarded_by
	`

	_, err := r.db.Exec(ctx, query,
		c.MemberID,
		c.SpecialtyID,
		string(c.Status),
		nullableTime(c.AwardedAt),
		c.AwardedDirectly,
		c.AwardedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert completion: %w", err)
	}
	return nil
}

// GetByMember returns all completion facts of a member.
func (r *CompletionRepository) GetByMember(ctx context.Context, memberID string) ([]*progress.Completion, error) {
	query := `SELECT ` + completionColumns + ` FROM specialty_completions WHERE member_id = $1 ORDER BY specialty_id`

	rows, err := r.db.Query(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query member completions: %w", err)
	}
	defer rows.Close()

	var completions []*progress.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

func scanCompletion(row pgx.Row) (*progress.Completion, error) {
	var c progress.Completion
	var status string
	var awardedAt *time.Time

	err := row.Scan(
		&c.MemberID,
		&c.SpecialtyID,
		&status,
		&awardedAt,
		&c.AwardedDirectly,
		&c.AwardedBy,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan completion: %w", err)
	}

	c.Status = progress.CompletionStatus(status)
	c.AwardedAt = timeValue(awardedAt)
	return &c, nil
}
