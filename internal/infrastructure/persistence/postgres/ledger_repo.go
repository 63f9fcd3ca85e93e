package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/ledger"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER REPOSITORY IMPLEMENTATION
// Журнал append-only. Каждая запись меняет кешированный баланс участника
// в том же запросе транзакции; кеш никогда не обновляется без записи,
// кроме ResetBalance и DeleteByReference (оба идут через журнал аудита).
// ══════════════════════════════════════════════════════════════════════════════

// LedgerRepository implements ledger.Repository for PostgreSQL.
type LedgerRepository struct {
	db Querier
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db Querier) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const ledgerColumns = `id, member_id, amount, source, reference_id,
	   reverses_entry_id, reason, created_by, created_at`

// Append inserts an entry and updates the member's cached balance.
// Returns the new cached balance.
func (r *LedgerRepository) Append(ctx context.Context, e *ledger.Entry) (int, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	insertQuery := `
		INSERT INTO points_ledger (
			id, member_id, amount, source, reference_id,
			reverses_entry_id, reason, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, insertQuery,
		e.ID,
		e.MemberID,
		e.Amount,
		string(e.Source),
		e.ReferenceID,
		e.ReversesEntryID,
		e.Reason,
		e.CreatedBy,
		e.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return 0, shared.ErrAlreadyExists
		}
		return 0, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	var balance int
	err = r.db.QueryRow(ctx,
		`UPDATE members SET points_balance = points_balance + $1, updated_at = NOW() WHERE id = $2 RETURNING points_balance`,
		e.Amount, e.MemberID,
	).Scan(&balance)
	if err != nil {
		if IsNoRows(err) {
			return 0, shared.ErrMemberNotFound
		}
		return 0, fmt.Errorf("failed to update cached balance: %w", err)
	}
	return balance, nil
}

// Balance returns the member's cached balance.
func (r *LedgerRepository) Balance(ctx context.Context, memberID string) (int, error) {
	var balance int
	err := r.db.QueryRow(ctx, `SELECT points_balance FROM members WHERE id = $1`, memberID).Scan(&balance)
	if err != nil {
		if IsNoRows(err) {
			return 0, shared.ErrMemberNotFound
		}
		return 0, fmt.Errorf("failed to read cached balance: %w", err)
	}
	return balance, nil
}

// SumEntries returns the authoritative sum over the member's entries.
func (r *LedgerRepository) SumEntries(ctx context.Context, memberID string) (int, error) {
	var sum int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM points_ledger WHERE member_id = $1`,
		memberID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	return sum, nil
}

// History returns the member's entries, newest first.
func (r *LedgerRepository) History(ctx context.Context, memberID string, filter ledger.HistoryFilter) ([]*ledger.Entry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM points_ledger WHERE member_id = $1`
	args := []interface{}{memberID}

	if filter.Source != "" {
		args = append(args, string(filter.Source))
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	var window string
	window, args = windowClauses("created_at", filter.From, filter.To, args)
	query += window

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger history: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// SumInWindow re-sums a member's entries inside a time window. A zero
// bound leaves that side of the window open.
func (r *LedgerRepository) SumInWindow(ctx context.Context, memberID string, from, to time.Time) (int, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM points_ledger WHERE member_id = $1`
	args := []interface{}{memberID}

	var window string
	window, args = windowClauses("created_at", from, to, args)
	query += window

	var sum int
	err := r.db.QueryRow(ctx, query, args...).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum window entries: %w", err)
	}
	return sum, nil
}

// GetByReference returns entries referencing a record or activity, newest first.
func (r *LedgerRepository) GetByReference(ctx context.Context, memberID, referenceID string) ([]*ledger.Entry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM points_ledger
		WHERE member_id = $1 AND reference_id = $2
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, memberID, referenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries by reference: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// DeleteByReference permanently removes entries tied to a reference and
// subtracts their summed amount from the cached balance. Returns the
// removed sum. Единственное нарушение append-only; вызывается только
// deleteHistory в паре со строкой аудита.
func (r *LedgerRepository) DeleteByReference(ctx context.Context, memberID, referenceID string) (int, error) {
	var removed *int
	err := r.db.QueryRow(ctx,
		`WITH deleted AS (
			DELETE FROM points_ledger
			WHERE member_id = $1 AND reference_id = $2
			RETURNING amount
		)
		SELECT SUM(amount) FROM deleted`,
		memberID, referenceID,
	).Scan(&removed)
	if err != nil {
		return 0, fmt.Errorf("failed to delete entries by reference: %w", err)
	}
	if removed == nil {
		return 0, nil
	}

	_, err = r.db.Exec(ctx,
		`UPDATE members SET points_balance = points_balance - $1, updated_at = NOW() WHERE id = $2`,
		*removed, memberID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to subtract removed sum: %w", err)
	}
	return *removed, nil
}

// ResetBalance sets the cached balance to zero without touching entries.
func (r *LedgerRepository) ResetBalance(ctx context.Context, memberID string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE members SET points_balance = 0, updated_at = NOW() WHERE id = $1`,
		memberID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrMemberNotFound
	}
	return nil
}

// Recompute resets the cached balance from the log. Returns the previous
// cached value and the recomputed sum so callers can flag drift.
func (r *LedgerRepository) Recompute(ctx context.Context, memberID string) (int, int, error) {
	cached, err := r.Balance(ctx, memberID)
	if err != nil {
		return 0, 0, err
	}

	actual, err := r.SumEntries(ctx, memberID)
	if err != nil {
		return 0, 0, err
	}

	if cached != actual {
		_, err = r.db.Exec(ctx,
			`UPDATE members SET points_balance = $1, updated_at = NOW() WHERE id = $2`,
			actual, memberID,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to write recomputed balance: %w", err)
		}
	}
	return cached, actual, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanLedgerEntry(row pgx.Row) (*ledger.Entry, error) {
	var e ledger.Entry
	var source string

	err := row.Scan(
		&e.ID,
		&e.MemberID,
		&e.Amount,
		&source,
		&e.ReferenceID,
		&e.ReversesEntryID,
		&e.Reason,
		&e.CreatedBy,
		&e.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLedgerEntryNotFound
		}
		return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
	}

	e.Source = ledger.Source(source)
	return &e, nil
}

func scanLedgerEntries(rows pgx.Rows) ([]*ledger.Entry, error) {
	var entries []*ledger.Entry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN AUDIT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// AuditRepository implements ledger.AuditRepository for PostgreSQL.
type AuditRepository struct {
	db Querier
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db Querier) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record appends an administrative action row.
func (r *AuditRepository) Record(ctx context.Context, a *ledger.AdminAction) error {
	detailsJSON, err := json.Marshal(a.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal action details: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO admin_actions (id, actor_id, action, target_member_id, target_item_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID,
		a.ActorID,
		a.Action,
		a.MemberID,
		a.ItemID,
		detailsJSON,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record admin action: %w", err)
	}
	return nil
}

// GetByActor returns actions performed by an actor, newest first.
func (r *AuditRepository) GetByActor(ctx context.Context, actorID string, limit int) ([]*ledger.AdminAction, error) {
	query := `
		SELECT id, actor_id, action, target_member_id, target_item_id, details, created_at
		FROM admin_actions
		WHERE actor_id = $1
		ORDER BY created_at DESC
	`
	args := []interface{}{actorID}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin actions: %w", err)
	}
	defer rows.Close()

	var actions []*ledger.AdminAction
	for rows.Next() {
		var a ledger.AdminAction
		var detailsJSON []byte
		if err := rows.Scan(&a.ID, &a.ActorID, &a.Action, &a.MemberID, &a.ItemID, &detailsJSON, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan admin action: %w", err)
		}
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &a.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal action details: %w", err)
			}
		}
		actions = append(actions, &a)
	}
	return actions, rows.Err()
}
