// Package ledger contains the points ledger domain model: an append-oriented
// log of point-affecting events per member with a derived running balance.
// Entries are never mutated; a correction is a new entry with the opposite
// amount referencing the original, so net balance stays correct and history
// stays truthful.
package ledger

import (
	"strings"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// Source identifies what kind of action produced a ledger entry.
type Source string

const (
	// SourceRequirement - an approved class requirement.
	SourceRequirement Source = "requirement"

	// SourceSpecialty - an approved specialty requirement or a direct award.
	SourceSpecialty Source = "specialty"

	// SourceActivity - a club activity (bulk awards).
	SourceActivity Source = "activity"

	// SourceEvent - a regional event requirement.
	SourceEvent Source = "event"

	// SourceManualAdjustment - a manual correction by an admin.
	SourceManualAdjustment Source = "manual_adjustment"

	// SourceAttendance - meeting attendance points.
	SourceAttendance Source = "attendance"

	// SourcePurchase - points spent in the club store.
	SourcePurchase Source = "purchase"

	// SourceBalanceReset - an offsetting entry that cancels the member's
	// current ledger sum on an admin reset. Distinguished in the audit
	// trail from a normal negative adjustment, and keeps the zeroed
	// balance reproducible from the journal.
	SourceBalanceReset Source = "balance_reset"
)

// IsValid reports whether the source is known.
func (s Source) IsValid() bool {
	switch s {
	case SourceRequirement, SourceSpecialty, SourceActivity, SourceEvent,
		SourceManualAdjustment, SourceAttendance, SourcePurchase, SourceBalanceReset:
		return true
	}
	return false
}

// SourceForItemKind maps an assignable item kind to the ledger source used
// when its approval grants points.
func SourceForItemKind(kind string) Source {
	switch kind {
	case "class_requirement":
		return SourceRequirement
	case "specialty_requirement":
		return SourceSpecialty
	case "event_requirement":
		return SourceEvent
	}
	return SourceManualAdjustment
}

// Entry is one immutable, signed point transaction attributable to a cause
// and an actor.
type Entry struct {
	// ID is the entry identifier (UUID).
	ID string

	// MemberID is the member whose balance the entry affects.
	MemberID string

	// Amount is the signed point delta. Never zero.
	Amount int

	// Source identifies the kind of triggering action.
	Source Source

	// ReferenceID points at the triggering progress record, activity,
	// or specialty. Format depends on the source.
	ReferenceID string

	// ReversesEntryID links a correction to the entry it reverses.
	ReversesEntryID string

	// Reason is a human-readable explanation.
	Reason string

	// CreatedBy is the actor who caused the entry.
	CreatedBy string

	// CreatedAt is when the entry was appended.
	CreatedAt time.Time
}

// Validate checks entry invariants before appending.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.MemberID) == "" {
		return shared.ErrInvalidID
	}
	if e.Amount == 0 {
		return shared.ErrZeroAmount
	}
	if !e.Source.IsValid() {
		return shared.ErrInvalidSource
	}
	if strings.TrimSpace(e.CreatedBy) == "" {
		return shared.ErrEmptyValue
	}
	return nil
}

// Inverse builds the reversal of this entry: same magnitude, opposite sign,
// referencing the original. Used by revoke.
func (e *Entry) Inverse(id, actorID, reason string, now time.Time) *Entry {
	return &Entry{
		ID:              id,
		MemberID:        e.MemberID,
		Amount:          -e.Amount,
		Source:          e.Source,
		ReferenceID:     e.ReferenceID,
		ReversesEntryID: e.ID,
		Reason:          reason,
		CreatedBy:       actorID,
		CreatedAt:       now,
	}
}

// Sum computes the net balance of a sequence of entries.
func Sum(entries []*Entry) int {
	total := 0
	for _, e := range entries {
		total += e.Amount
	}
	return total
}

// HistoryFilter narrows a member's ledger history query.
type HistoryFilter struct {
	// Source limits entries to one source (empty = all).
	Source Source

	// From limits entries to createdAt >= From (zero = unbounded).
	From time.Time

	// To limits entries to createdAt < To (zero = unbounded).
	To time.Time

	// Limit caps the number of returned entries (0 = no cap).
	Limit int

	// Offset skips entries for pagination; history queries are restartable.
	Offset int
}

// Matches reports whether an entry passes the filter (time and source only;
// pagination is the store's concern).
func (f HistoryFilter) Matches(e *Entry) bool {
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.CreatedAt.Before(f.To) {
		return false
	}
	return true
}
