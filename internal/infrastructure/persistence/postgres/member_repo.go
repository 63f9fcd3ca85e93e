package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER REPOSITORY IMPLEMENTATION
// Репозитории принимают Querier, поэтому один и тот же код работает
// и на пуле, и внутри транзакции unit of work.
// ══════════════════════════════════════════════════════════════════════════════

// MemberRepository implements member.Repository for PostgreSQL.
type MemberRepository struct {
	db Querier
}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(db Querier) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = `id, club_id, unit_id, display_name, role, birth_date,
	   password_hash, points_balance, status, created_at, updated_at`

// Create creates a new member.
func (r *MemberRepository) Create(ctx context.Context, m *member.Member) error {
	query := `
		INSERT INTO members (
			id, club_id, unit_id, display_name, role, birth_date,
			password_hash, points_balance, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		m.ID,
		string(m.ClubID),
		string(m.UnitID),
		m.DisplayName,
		string(m.Role),
		m.BirthDate,
		m.PasswordHash,
		int(m.PointsBalance),
		string(m.Status),
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrMemberAlreadyExists
		}
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// GetByID returns a member by internal ID.
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*member.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	return scanMember(row)
}

// Update updates a member.
func (r *MemberRepository) Update(ctx context.Context, m *member.Member) error {
	query := `
		UPDATE members SET
			club_id = $1,
			unit_id = $2,
			display_name = $3,
			role = $4,
			password_hash = $5,
			points_balance = $6,
			status = $7,
			updated_at = $8
		WHERE id = $9
	`

	result, err := r.db.Exec(ctx, query,
		string(m.ClubID),
		string(m.UnitID),
		m.DisplayName,
		string(m.Role),
		m.PasswordHash,
		int(m.PointsBalance),
		string(m.Status),
		time.Now().UTC(),
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrMemberNotFound
	}
	return nil
}

// GetByClub returns members of a club.
func (r *MemberRepository) GetByClub(ctx context.Context, clubID member.ClubID, opts member.ListOptions) ([]*member.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE club_id = $1 ORDER BY display_name, id`
	args := []interface{}{string(clubID)}
	query, args = applyListOptions(query, args, opts)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query club members: %w", err)
	}
	defer rows.Close()

	return scanMembers(rows)
}

// GetByUnit returns members of a unit within a club.
func (r *MemberRepository) GetByUnit(ctx context.Context, clubID member.ClubID, unitID member.UnitID, opts member.ListOptions) ([]*member.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE club_id = $1 AND unit_id = $2 ORDER BY display_name, id`
	args := []interface{}{string(clubID), string(unitID)}
	query, args = applyListOptions(query, args, opts)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query unit members: %w", err)
	}
	defer rows.Close()

	return scanMembers(rows)
}

// GetByIDs returns members matching a list of IDs.
func (r *MemberRepository) GetByIDs(ctx context.Context, ids []string) ([]*member.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + memberColumns + ` FROM members WHERE id = ANY($1) ORDER BY display_name, id`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query members by ids: %w", err)
	}
	defer rows.Close()

	return scanMembers(rows)
}

// Exists checks whether a member exists.
func (r *MemberRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM members WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check member existence: %w", err)
	}
	return exists, nil
}

// Count returns the number of members in a club.
func (r *MemberRepository) Count(ctx context.Context, clubID member.ClubID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM members WHERE club_id = $1`, string(clubID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count club members: %w", err)
	}
	return count, nil
}

// ClubRegion возвращает регион клуба из реестра. Незарегистрированный
// клуб - не ошибка: регион считается пустым.
func (r *MemberRepository) ClubRegion(ctx context.Context, clubID member.ClubID) (string, error) {
	var regionID string
	err := r.db.QueryRow(ctx, `SELECT region_id FROM clubs WHERE id = $1`, string(clubID)).Scan(&regionID)
	if err != nil {
		if IsNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read club region: %w", err)
	}
	return regionID, nil
}

// ListIDs возвращает ID всех участников. Используется фоновой сверкой
// балансов: журнал хранит историю и неактивных участников тоже.
func (r *MemberRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM members ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list member ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func applyListOptions(query string, args []interface{}, opts member.ListOptions) (string, []interface{}) {
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

func scanMember(row pgx.Row) (*member.Member, error) {
	var m member.Member
	var clubID, unitID, role, status string
	var balance int

	err := row.Scan(
		&m.ID,
		&clubID,
		&unitID,
		&m.DisplayName,
		&role,
		&m.BirthDate,
		&m.PasswordHash,
		&balance,
		&status,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}

	m.ClubID = member.ClubID(clubID)
	m.UnitID = member.UnitID(unitID)
	m.Role = member.Role(role)
	m.Status = member.Status(status)
	m.PointsBalance = member.Points(balance)
	return &m, nil
}

func scanMembers(rows pgx.Rows) ([]*member.Member, error) {
	var members []*member.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
