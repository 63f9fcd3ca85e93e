// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
// The presentation layer subscribes to these instead of polling tables.
const (
	// Member events
	EventMemberRegistered   EventType = "member.registered"
	EventMemberUpdated      EventType = "member.updated"
	EventMemberDeactivated  EventType = "member.deactivated"
	EventMemberReactivated  EventType = "member.reactivated"
	EventMemberTransferred  EventType = "member.transferred"

	// Progress events
	EventAnswerSubmitted  EventType = "progress.submitted"
	EventProgressApproved EventType = "progress.approved"
	EventProgressRejected EventType = "progress.rejected"
	EventProgressRevoked  EventType = "progress.revoked"
	EventHistoryDeleted   EventType = "progress.history_deleted"

	// Completion events
	EventSpecialtyCompleted EventType = "completion.specialty_completed"
	EventSpecialtyReverted  EventType = "completion.specialty_reverted"
	EventSpecialtyAwarded   EventType = "completion.specialty_awarded"

	// Ledger events
	EventPointsGranted  EventType = "ledger.points_granted"
	EventPointsRevoked  EventType = "ledger.points_revoked"
	EventPointsAdjusted EventType = "ledger.points_adjusted"
	EventBalanceReset   EventType = "ledger.balance_reset"

	// Ranking events
	EventRankingRebuilt EventType = "ranking.rebuilt"

	// System events
	EventBalancesReconciled EventType = "system.balances_reconciled"
	EventDriftDetected      EventType = "system.drift_detected"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// AnswerSubmittedEvent is emitted when a member submits an answer for review.
type AnswerSubmittedEvent struct {
	BaseEvent
	MemberID     string `json:"member_id"`
	ItemID       string `json:"item_id"`
	ItemKind     string `json:"item_kind"`
	Resubmission bool   `json:"resubmission"`
}

// Payload implements Event interface.
func (e AnswerSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":    e.MemberID,
		"item_id":      e.ItemID,
		"item_kind":    e.ItemKind,
		"resubmission": e.Resubmission,
	}
}

// NewAnswerSubmittedEvent creates a new AnswerSubmittedEvent.
func NewAnswerSubmittedEvent(memberID, itemID, itemKind string, resubmission bool) AnswerSubmittedEvent {
	return AnswerSubmittedEvent{
		BaseEvent:    NewBaseEvent(EventAnswerSubmitted, memberID),
		MemberID:     memberID,
		ItemID:       itemID,
		ItemKind:     itemKind,
		Resubmission: resubmission,
	}
}

// ProgressApprovedEvent is emitted when a reviewer approves a pending record.
type ProgressApprovedEvent struct {
	BaseEvent
	MemberID      string `json:"member_id"`
	ItemID        string `json:"item_id"`
	ReviewerID    string `json:"reviewer_id"`
	PointsGranted int    `json:"points_granted"`
}

// Payload implements Event interface.
func (e ProgressApprovedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":      e.MemberID,
		"item_id":        e.ItemID,
		"reviewer_id":    e.ReviewerID,
		"points_granted": e.PointsGranted,
	}
}

// NewProgressApprovedEvent creates a new ProgressApprovedEvent.
func NewProgressApprovedEvent(memberID, itemID, reviewerID string, points int) ProgressApprovedEvent {
	return ProgressApprovedEvent{
		BaseEvent:     NewBaseEvent(EventProgressApproved, memberID),
		MemberID:      memberID,
		ItemID:        itemID,
		ReviewerID:    reviewerID,
		PointsGranted: points,
	}
}

// ProgressRejectedEvent is emitted when a reviewer rejects a pending record.
type ProgressRejectedEvent struct {
	BaseEvent
	MemberID   string `json:"member_id"`
	ItemID     string `json:"item_id"`
	ReviewerID string `json:"reviewer_id"`
	Reason     string `json:"reason"`
}

// Payload implements Event interface.
func (e ProgressRejectedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":   e.MemberID,
		"item_id":     e.ItemID,
		"reviewer_id": e.ReviewerID,
		"reason":      e.Reason,
	}
}

// NewProgressRejectedEvent creates a new ProgressRejectedEvent.
func NewProgressRejectedEvent(memberID, itemID, reviewerID, reason string) ProgressRejectedEvent {
	return ProgressRejectedEvent{
		BaseEvent:  NewBaseEvent(EventProgressRejected, memberID),
		MemberID:   memberID,
		ItemID:     itemID,
		ReviewerID: reviewerID,
		Reason:     reason,
	}
}

// ProgressRevokedEvent is emitted when an approval is reverted to pending.
type ProgressRevokedEvent struct {
	BaseEvent
	MemberID      string `json:"member_id"`
	ItemID        string `json:"item_id"`
	ReviewerID    string `json:"reviewer_id"`
	PointsRevoked int    `json:"points_revoked"`
}

// Payload implements Event interface.
func (e ProgressRevokedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":      e.MemberID,
		"item_id":        e.ItemID,
		"reviewer_id":    e.ReviewerID,
		"points_revoked": e.PointsRevoked,
	}
}

// NewProgressRevokedEvent creates a new ProgressRevokedEvent.
func NewProgressRevokedEvent(memberID, itemID, reviewerID string, points int) ProgressRevokedEvent {
	return ProgressRevokedEvent{
		BaseEvent:     NewBaseEvent(EventProgressRevoked, memberID),
		MemberID:      memberID,
		ItemID:        itemID,
		ReviewerID:    reviewerID,
		PointsRevoked: points,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Completion Events
// ═══════════════════════════════════════════════════════════════════════════

// SpecialtyCompletedEvent is emitted when the last requirement of a specialty
// is approved, or when an admin awards the specialty directly.
type SpecialtyCompletedEvent struct {
	BaseEvent
	MemberID    string `json:"member_id"`
	SpecialtyID string `json:"specialty_id"`
	Direct      bool   `json:"direct"` // true for the admin award shortcut
}

// Payload implements Event interface.
func (e SpecialtyCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":    e.MemberID,
		"specialty_id": e.SpecialtyID,
		"direct":       e.Direct,
	}
}

// NewSpecialtyCompletedEvent creates a new SpecialtyCompletedEvent.
func NewSpecialtyCompletedEvent(memberID, specialtyID string, direct bool) SpecialtyCompletedEvent {
	eventType := EventSpecialtyCompleted
	if direct {
		eventType = EventSpecialtyAwarded
	}
	return SpecialtyCompletedEvent{
		BaseEvent:   NewBaseEvent(eventType, memberID),
		MemberID:    memberID,
		SpecialtyID: specialtyID,
		Direct:      direct,
	}
}

// SpecialtyRevertedEvent is emitted when revoking a requirement reopens a
// previously completed specialty.
type SpecialtyRevertedEvent struct {
	BaseEvent
	MemberID    string `json:"member_id"`
	SpecialtyID string `json:"specialty_id"`
}

// Payload implements Event interface.
func (e SpecialtyRevertedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":    e.MemberID,
		"specialty_id": e.SpecialtyID,
	}
}

// NewSpecialtyRevertedEvent creates a new SpecialtyRevertedEvent.
func NewSpecialtyRevertedEvent(memberID, specialtyID string) SpecialtyRevertedEvent {
	return SpecialtyRevertedEvent{
		BaseEvent:   NewBaseEvent(EventSpecialtyReverted, memberID),
		MemberID:    memberID,
		SpecialtyID: specialtyID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Ledger Events
// ═══════════════════════════════════════════════════════════════════════════

// PointsChangedEvent is emitted for every ledger append that changes a balance.
type PointsChangedEvent struct {
	BaseEvent
	MemberID   string `json:"member_id"`
	Amount     int    `json:"amount"`
	NewBalance int    `json:"new_balance"`
	Source     string `json:"source"`
	EntryID    string `json:"entry_id"`
}

// Payload implements Event interface.
func (e PointsChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":   e.MemberID,
		"amount":      e.Amount,
		"new_balance": e.NewBalance,
		"source":      e.Source,
		"entry_id":    e.EntryID,
	}
}

// NewPointsChangedEvent creates a PointsChangedEvent with the event type
// matching the sign and cause of the change.
func NewPointsChangedEvent(eventType EventType, memberID, entryID, source string, amount, newBalance int) PointsChangedEvent {
	return PointsChangedEvent{
		BaseEvent:  NewBaseEvent(eventType, memberID),
		MemberID:   memberID,
		Amount:     amount,
		NewBalance: newBalance,
		Source:     source,
		EntryID:    entryID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Member Events
// ═══════════════════════════════════════════════════════════════════════════

// MemberRegisteredEvent is emitted when a new member registers.
type MemberRegisteredEvent struct {
	BaseEvent
	MemberID    string `json:"member_id"`
	ClubID      string `json:"club_id"`
	UnitID      string `json:"unit_id,omitempty"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Payload implements Event interface.
func (e MemberRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":    e.MemberID,
		"club_id":      e.ClubID,
		"unit_id":      e.UnitID,
		"display_name": e.DisplayName,
		"role":         e.Role,
	}
}

// NewMemberRegisteredEvent creates a new MemberRegisteredEvent.
func NewMemberRegisteredEvent(memberID, clubID, unitID, displayName, role string) MemberRegisteredEvent {
	return MemberRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventMemberRegistered, memberID),
		MemberID:    memberID,
		ClubID:      clubID,
		UnitID:      unitID,
		DisplayName: displayName,
		Role:        role,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Administrative Events
// ═══════════════════════════════════════════════════════════════════════════

// AdminActionEvent is emitted for privileged operations that bypass normal
// flows (history deletion, balance reset). These are audited separately.
type AdminActionEvent struct {
	BaseEvent
	ActorID  string                 `json:"actor_id"`
	Action   string                 `json:"action"`
	MemberID string                 `json:"member_id"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// Payload implements Event interface.
func (e AdminActionEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"actor_id":  e.ActorID,
		"action":    e.Action,
		"member_id": e.MemberID,
		"details":   e.Details,
	}
}

// NewAdminActionEvent creates a new AdminActionEvent.
func NewAdminActionEvent(eventType EventType, actorID, action, memberID string, details map[string]interface{}) AdminActionEvent {
	return AdminActionEvent{
		BaseEvent: NewBaseEvent(eventType, memberID),
		ActorID:   actorID,
		Action:    action,
		MemberID:  memberID,
		Details:   details,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler processes a single domain event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// EventSubscriber subscribes handlers to domain events.
type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler) error
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}

// NoopPublisher discards all events. Useful for tests and tools.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(Event) error { return nil }
