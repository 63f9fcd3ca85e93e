package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/curriculum"
	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// CURRICULUM REPOSITORY IMPLEMENTATION
// Ядро только читает программу; запись выполняет внешний импорт.
// Разрешение области видимости выполняется доменной функцией над всеми
// версиями логического требования - инвариант "ровно один действующий
// элемент" проверяется в одном месте, а не дублируется в SQL.
// ══════════════════════════════════════════════════════════════════════════════

// CurriculumRepository implements curriculum.Repository for PostgreSQL.
type CurriculumRepository struct {
	db Querier
}

// NewCurriculumRepository creates a new CurriculumRepository.
func NewCurriculumRepository(db Querier) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

const itemColumns = `id, logical_id, kind, parent_id, name, point_value,
	   answer_type, starts_at, ends_at, scope_kind, scope_id, active, created_at`

// GetItem returns an item by row ID.
func (r *CurriculumRepository) GetItem(ctx context.Context, id string) (*curriculum.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM assignable_items WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	return scanItem(row)
}

// GetVersions returns all versions of a logical requirement, including inactive.
func (r *CurriculumRepository) GetVersions(ctx context.Context, logicalID string) ([]*curriculum.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM assignable_items WHERE logical_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, logicalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query item versions: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// ResolveForMember returns the effective item for a member.
func (r *CurriculumRepository) ResolveForMember(ctx context.Context, logicalID string, clubID member.ClubID, regionID string) (*curriculum.Item, error) {
	versions, err := r.GetVersions(ctx, logicalID)
	if err != nil {
		return nil, err
	}
	return curriculum.ResolveEffective(versions, clubID, regionID)
}

// GetItemsByParent returns a parent's active items visible to a club.
// Version shadowing stays unresolved here; callers collapse forks via
// curriculum.ResolveEffectiveSet.
func (r *CurriculumRepository) GetItemsByParent(ctx context.Context, parentID string, clubID member.ClubID, regionID string) ([]*curriculum.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM assignable_items
		WHERE parent_id = $1 AND active
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items by parent: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}

	visible := make([]*curriculum.Item, 0, len(items))
	for _, it := range items {
		if it.VisibleTo(clubID, regionID) {
			visible = append(visible, it)
		}
	}
	return visible, nil
}

// GetSpecialty returns a parent entity by ID.
func (r *CurriculumRepository) GetSpecialty(ctx context.Context, id string) (*curriculum.Specialty, error) {
	var s curriculum.Specialty
	var kind string

	err := r.db.QueryRow(ctx,
		`SELECT id, kind, name, requires_assignment FROM specialties WHERE id = $1`,
		id,
	).Scan(&s.ID, &kind, &s.Name, &s.RequiresAssignment)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSpecialtyNotFound
		}
		return nil, fmt.Errorf("failed to scan specialty: %w", err)
	}

	s.Kind = curriculum.ParentKind(kind)
	return &s, nil
}

// DeactivateItem marks a club version inactive.
// История прогресса по версии сохраняется; разрешение возвращается
// к глобальному оригиналу.
func (r *CurriculumRepository) DeactivateItem(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `UPDATE assignable_items SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrItemNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanItem(row pgx.Row) (*curriculum.Item, error) {
	var it curriculum.Item
	var kind, answerType, scopeKind string
	var startsAt, endsAt *time.Time

	err := row.Scan(
		&it.ID,
		&it.LogicalID,
		&kind,
		&it.ParentID,
		&it.Name,
		&it.PointValue,
		&answerType,
		&startsAt,
		&endsAt,
		&scopeKind,
		&it.ScopeID,
		&it.Active,
		&it.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	it.Kind = curriculum.ItemKind(kind)
	it.AnswerType = curriculum.AnswerType(answerType)
	it.Scope = curriculum.ScopeKind(scopeKind)
	it.Window = curriculum.TimeWindow{StartsAt: timeValue(startsAt), EndsAt: timeValue(endsAt)}
	return &it, nil
}

func scanItems(rows pgx.Rows) ([]*curriculum.Item, error) {
	var items []*curriculum.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSIGNMENT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// AssignmentRepository implements curriculum.AssignmentRepository for PostgreSQL.
type AssignmentRepository struct {
	db Querier
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(db Querier) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Assign enrolls a member into a specialty. Idempotent.
func (r *AssignmentRepository) Assign(ctx context.Context, a *curriculum.Assignment) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO specialty_assignments (member_id, specialty_id, assigned_by, assigned_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (member_id, specialty_id) DO NOTHING`,
		a.MemberID, a.SpecialtyID, a.AssignedBy, a.AssignedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to assign specialty: %w", err)
	}
	return nil
}

// IsAssigned checks whether a member is enrolled into a specialty.
func (r *AssignmentRepository) IsAssigned(ctx context.Context, memberID, specialtyID string) (bool, error) {
	var assigned bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM specialty_assignments WHERE member_id = $1 AND specialty_id = $2)`,
		memberID, specialtyID,
	).Scan(&assigned)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return assigned, nil
}

// GetAssignments returns a member's specialty enrollments.
func (r *AssignmentRepository) GetAssignments(ctx context.Context, memberID string) ([]*curriculum.Assignment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT member_id, specialty_id, assigned_by, assigned_at
		 FROM specialty_assignments WHERE member_id = $1 ORDER BY assigned_at`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*curriculum.Assignment
	for rows.Next() {
		var a curriculum.Assignment
		if err := rows.Scan(&a.MemberID, &a.SpecialtyID, &a.AssignedBy, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, &a)
	}
	return assignments, rows.Err()
}
