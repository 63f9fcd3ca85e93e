package ledger

import (
	"context"
	"time"
)

// Repository defines the ledger store contract. Implementations live in
// infrastructure/persistence.
type Repository interface {
	// Append inserts an entry and updates the member's cached balance in
	// the same transaction. It never edits or removes existing rows.
	// Returns the member's new cached balance.
	Append(ctx context.Context, e *Entry) (int, error)

	// Balance returns the member's cached balance.
	Balance(ctx context.Context, memberID string) (int, error)

	// SumEntries returns the authoritative sum over the member's entries.
	SumEntries(ctx context.Context, memberID string) (int, error)

	// History returns the member's entries, newest first, filtered.
	History(ctx context.Context, memberID string, filter HistoryFilter) ([]*Entry, error)

	// SumInWindow re-sums a member's entries inside a time window.
	// A zero bound leaves that side open. Per-period queries use this
	// instead of the cached balance.
	SumInWindow(ctx context.Context, memberID string, from, to time.Time) (int, error)

	// GetByReference returns entries referencing a progress record or
	// activity, newest first. Revoke uses this to find the grant to invert.
	GetByReference(ctx context.Context, memberID, referenceID string) ([]*Entry, error)

	// DeleteByReference permanently removes entries tied to a reference and
	// subtracts their summed amount from the cached balance in the same
	// transaction. Returns the removed sum. Reserved for deleteHistory;
	// breaks append-only purity on purpose and must be paired with an
	// admin audit row.
	DeleteByReference(ctx context.Context, memberID, referenceID string) (int, error)

	// ResetBalance zeroes the cached balance without touching entries.
	// Paired with an offsetting balance_reset entry so the cache and the
	// journal sum agree even when the cache had drifted before the reset.
	ResetBalance(ctx context.Context, memberID string) error

	// Recompute resets the cached balance from the log and returns the
	// previous cached value and the recomputed sum, so callers can flag
	// drift as a data-integrity error.
	Recompute(ctx context.Context, memberID string) (cached int, actual int, err error)
}

// AuditRepository records privileged administrative actions that bypass
// normal flows (history deletion, balance resets).
type AuditRepository interface {
	// Record appends an administrative action row.
	Record(ctx context.Context, a *AdminAction) error

	// GetByActor returns actions performed by an actor, newest first.
	GetByActor(ctx context.Context, actorID string, limit int) ([]*AdminAction, error)
}

// AdminAction is one audited privileged operation.
type AdminAction struct {
	// ID is the action identifier (UUID).
	ID string

	// ActorID is who performed the action.
	ActorID string

	// Action names the operation, e.g. "delete_history", "reset_balance".
	Action string

	// MemberID is the affected member.
	MemberID string

	// ItemID is the affected item, if any.
	ItemID string

	// Details carries operation-specific context for the audit trail.
	Details map[string]interface{}

	// CreatedAt is when the action happened.
	CreatedAt time.Time
}
