package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/ranking"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING READER IMPLEMENTATION
// Читает участников и баланс в одной repeatable-read транзакции: рейтинг
// видит согласованный снимок, конкурирующие начисления не искажают суммы.
// Несвежесть в несколько секунд допустима.
// ══════════════════════════════════════════════════════════════════════════════

// RankingReader implements ranking.Reader for PostgreSQL.
type RankingReader struct {
	conn *Connection
}

// NewRankingReader creates a new RankingReader.
func NewRankingReader(conn *Connection) *RankingReader {
	return &RankingReader{conn: conn}
}

// scopePredicate returns the WHERE fragment and arguments for a scope.
// Уровни union/mission разрешаются через реестр клубов.
func scopePredicate(scope ranking.Scope, scopeID string) (string, []interface{}, error) {
	switch scope {
	case ranking.ScopeGlobal:
		return "TRUE", nil, nil
	case ranking.ScopeUnion:
		return "m.club_id IN (SELECT id FROM clubs WHERE union_id = $1)", []interface{}{scopeID}, nil
	case ranking.ScopeMission:
		return "m.club_id IN (SELECT id FROM clubs WHERE mission_id = $1)", []interface{}{scopeID}, nil
	case ranking.ScopeClub:
		return "m.club_id = $1", []interface{}{scopeID}, nil
	case ranking.ScopeUnit:
		return "m.unit_id = $1", []interface{}{scopeID}, nil
	}
	return "", nil, shared.ErrInvalidRankingScope
}

// MembersInScope returns scope members with their cached balances.
func (r *RankingReader) MembersInScope(ctx context.Context, scope ranking.Scope, scopeID string) ([]ranking.MemberPoints, error) {
	predicate, args, err := scopePredicate(scope, scopeID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT m.id, m.club_id, m.unit_id, m.display_name, m.role, m.birth_date,
			   m.password_hash, m.points_balance, m.status, m.created_at, m.updated_at
		FROM members m
		WHERE ` + predicate + `
		ORDER BY m.points_balance DESC, m.display_name, m.id
	`

	var rows []ranking.MemberPoints
	err = r.conn.WithTx(ctx, SnapshotTxOptions(), func(tx pgx.Tx) error {
		res, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query scope members: %w", err)
		}
		defer res.Close()

		members, err := scanMembers(res)
		if err != nil {
			return err
		}

		rows = make([]ranking.MemberPoints, 0, len(members))
		for _, m := range members {
			rows = append(rows, ranking.MemberPoints{Member: m, Points: int(m.PointsBalance)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MembersInScopeWindow returns scope members with points re-summed from
// the ledger inside a createdAt window. Кешированный баланс не
// используется; нулевая граница окна - отсутствие ограничения.
func (r *RankingReader) MembersInScopeWindow(ctx context.Context, scope ranking.Scope, scopeID string, from, to time.Time) ([]ranking.MemberPoints, error) {
	predicate, args, err := scopePredicate(scope, scopeID)
	if err != nil {
		return nil, err
	}

	var window string
	window, args = windowClauses("l.created_at", from, to, args)

	query := fmt.Sprintf(`
		SELECT m.id, m.club_id, m.unit_id, m.display_name, m.role, m.birth_date,
			   m.password_hash, m.points_balance, m.status, m.created_at, m.updated_at,
			   COALESCE(SUM(l.amount), 0) AS window_points
		FROM members m
		LEFT JOIN points_ledger l
			ON l.member_id = m.id%s
		WHERE %s
		GROUP BY m.id
		ORDER BY window_points DESC, m.display_name, m.id
	`, window, predicate)

	var result []ranking.MemberPoints
	err = r.conn.WithTx(ctx, SnapshotTxOptions(), func(tx pgx.Tx) error {
		res, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query window members: %w", err)
		}
		defer res.Close()

		for res.Next() {
			var m member.Member
			var clubID, unitID, role, status string
			var balance, windowPoints int

			err := res.Scan(
				&m.ID, &clubID, &unitID, &m.DisplayName, &role, &m.BirthDate,
				&m.PasswordHash, &balance, &status, &m.CreatedAt, &m.UpdatedAt,
				&windowPoints,
			)
			if err != nil {
				return fmt.Errorf("failed to scan window member: %w", err)
			}

			m.ClubID = member.ClubID(clubID)
			m.UnitID = member.UnitID(unitID)
			m.Role = member.Role(role)
			m.Status = member.Status(status)
			m.PointsBalance = member.Points(balance)
			result = append(result, ranking.MemberPoints{Member: &m, Points: windowPoints})
		}
		return res.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GroupTotals returns aggregates of a scope's child groups:
// clubs of a union/mission, units of a club.
// Учитываются только активные следопыты; среднее пустой группы - 0.
func (r *RankingReader) GroupTotals(ctx context.Context, scope ranking.Scope, scopeID string) ([]ranking.GroupTotal, error) {
	var query string
	var args []interface{}

	switch scope {
	case ranking.ScopeGlobal:
		query = `
			SELECT m.club_id,
				   COALESCE(SUM(m.points_balance), 0),
				   COUNT(*)
			FROM members m
			WHERE m.role = 'pathfinder' AND m.status = 'active'
			GROUP BY m.club_id
		`
	case ranking.ScopeUnion:
		query = `
			SELECT m.club_id,
				   COALESCE(SUM(m.points_balance), 0),
				   COUNT(*)
			FROM members m
			WHERE m.role = 'pathfinder' AND m.status = 'active'
			  AND m.club_id IN (SELECT id FROM clubs WHERE union_id = $1)
			GROUP BY m.club_id
		`
		args = []interface{}{scopeID}
	case ranking.ScopeMission:
		query = `
			SELECT m.club_id,
				   COALESCE(SUM(m.points_balance), 0),
				   COUNT(*)
			FROM members m
			WHERE m.role = 'pathfinder' AND m.status = 'active'
			  AND m.club_id IN (SELECT id FROM clubs WHERE mission_id = $1)
			GROUP BY m.club_id
		`
		args = []interface{}{scopeID}
	case ranking.ScopeClub:
		query = `
			SELECT m.unit_id,
				   COALESCE(SUM(m.points_balance), 0),
				   COUNT(*)
			FROM members m
			WHERE m.role = 'pathfinder' AND m.status = 'active'
			  AND m.club_id = $1 AND m.unit_id <> ''
			GROUP BY m.unit_id
		`
		args = []interface{}{scopeID}
	default:
		return nil, shared.ErrInvalidRankingScope
	}

	var groups []ranking.GroupTotal
	err := r.conn.WithTx(ctx, SnapshotTxOptions(), func(tx pgx.Tx) error {
		res, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query group totals: %w", err)
		}
		defer res.Close()

		for res.Next() {
			var g ranking.GroupTotal
			if err := res.Scan(&g.GroupID, &g.TotalPoints, &g.EligibleCount); err != nil {
				return fmt.Errorf("failed to scan group total: %w", err)
			}
			if g.EligibleCount > 0 {
				g.Average = float64(g.TotalPoints) / float64(g.EligibleCount)
			}
			groups = append(groups, g)
		}
		return res.Err()
	})
	if err != nil {
		return nil, err
	}
	return ranking.CompareGroups(groups), nil
}

// ListClubIDs возвращает ID всех клубов из реестра. Фоновое обновление
// рейтингов прогревает кеш по каждому клубу отдельно.
func (r *RankingReader) ListClubIDs(ctx context.Context) ([]string, error) {
	rows, err := r.conn.Query(ctx, `SELECT id FROM clubs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan club id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
