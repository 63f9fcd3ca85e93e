// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrAlreadyProcessed  = errors.New("already processed")
	ErrExpired           = errors.New("expired")

	// Authorization errors
	ErrNotAuthorized = errors.New("not authorized")
	ErrForbidden     = errors.New("forbidden")

	// Data integrity errors
	ErrLedgerInconsistency = errors.New("ledger inconsistency")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progress", "ledger", "ranking"
	Op      string // Operation that failed, e.g., "Approve", "Append"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Member domain errors
var (
	ErrMemberNotFound       = NewDomainError("member", "Find", ErrNotFound, "member not found")
	ErrMemberAlreadyExists  = NewDomainError("member", "Register", ErrAlreadyExists, "member already exists")
	ErrMemberNotActive      = NewDomainError("member", "CheckStatus", ErrInvalidState, "member is not active")
	ErrInvalidMemberRole    = NewDomainError("member", "Validate", ErrInvalidInput, "invalid member role")
	ErrInvalidBirthDate     = NewDomainError("member", "Validate", ErrInvalidInput, "invalid birth date")
	ErrInvalidMemberStatus  = NewDomainError("member", "UpdateStatus", ErrInvalidTransition, "invalid member status transition")
	ErrMemberPasswordPolicy = NewDomainError("member", "Register", ErrInvalidInput, "password does not satisfy policy")
)

// Curriculum domain errors
var (
	ErrItemNotFound       = NewDomainError("curriculum", "Find", ErrNotFound, "assignable item not found")
	ErrSpecialtyNotFound  = NewDomainError("curriculum", "FindSpecialty", ErrNotFound, "specialty not found")
	ErrItemNotAssigned    = NewDomainError("curriculum", "CheckAssignment", ErrForbidden, "specialty is not assigned to member")
	ErrItemOutsideWindow  = NewDomainError("curriculum", "CheckWindow", ErrExpired, "item is outside its time window")
	ErrAmbiguousItemScope = NewDomainError("curriculum", "Resolve", ErrInvalidState, "scope resolution yielded more than one item")
	ErrInvalidPointValue  = NewDomainError("curriculum", "Validate", ErrValueOutOfRange, "point value must be non-negative")
)

// Progress domain errors
var (
	ErrProgressNotFound   = NewDomainError("progress", "Find", ErrNotFound, "progress record not found")
	ErrAlreadyApproved    = NewDomainError("progress", "Submit", ErrAlreadyProcessed, "answer is frozen after approval")
	ErrNotPending         = NewDomainError("progress", "Review", ErrInvalidTransition, "record is not pending review")
	ErrNotApproved        = NewDomainError("progress", "Revoke", ErrInvalidTransition, "record is not approved")
	ErrSelfReview         = NewDomainError("progress", "Review", ErrNotAuthorized, "reviewers cannot review their own progress")
	ErrReviewerNotAllowed = NewDomainError("progress", "Review", ErrNotAuthorized, "reviewer lacks an instructor role")
	ErrAnswerRequired     = NewDomainError("progress", "Submit", ErrInvalidInput, "answer payload does not match the item answer type")
	ErrRejectionReason    = NewDomainError("progress", "Reject", ErrEmptyValue, "rejection requires a reason")
)

// Ledger domain errors
var (
	ErrLedgerEntryNotFound = NewDomainError("ledger", "Find", ErrNotFound, "ledger entry not found")
	ErrZeroAmount          = NewDomainError("ledger", "Append", ErrInvalidInput, "ledger entry amount cannot be zero")
	ErrBalanceDrift        = NewDomainError("ledger", "Recompute", ErrLedgerInconsistency, "cached balance diverged from ledger sum")
	ErrInvalidSource       = NewDomainError("ledger", "Validate", ErrInvalidInput, "invalid ledger entry source")
)

// Ranking domain errors
var (
	ErrInvalidRankingScope = NewDomainError("ranking", "Validate", ErrInvalidInput, "invalid ranking scope")
	ErrRankingUnavailable  = NewDomainError("ranking", "Compute", ErrServiceUnavailable, "ranking data unavailable")
)

// External service errors
var (
	ErrIdentityUnavailable = NewDomainError("identity", "Request", ErrServiceUnavailable, "identity service is unavailable")
	ErrIdentityTimeout     = NewDomainError("identity", "Request", ErrTimeout, "identity service request timeout")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidTransition checks if the error is an illegal state change.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrAlreadyProcessed)
}

// IsNotAuthorized checks if the error is an authorization failure.
func IsNotAuthorized(err error) bool {
	return errors.Is(err, ErrNotAuthorized) || errors.Is(err, ErrForbidden)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsRetryable checks if the operation can be retried. Deterministic domain
// rejections (invalid transitions, authorization failures) are never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
