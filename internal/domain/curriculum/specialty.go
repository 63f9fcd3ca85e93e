package curriculum

import (
	"strings"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SPECIALTY / CLASS / EVENT (родительские сущности требований)
// ══════════════════════════════════════════════════════════════════════════════

// ParentKind представляет вид родительской сущности.
type ParentKind string

const (
	// ParentClass - класс, упорядоченная учебная программа.
	ParentClass ParentKind = "class"

	// ParentSpecialty - специализация, именованный набор требований.
	// Завершение даёт сертификат (выдаётся внешним коллаборатором).
	ParentSpecialty ParentKind = "specialty"

	// ParentEvent - региональное событие с ограниченным окном.
	ParentEvent ParentKind = "event"
)

// IsValid проверяет корректность вида родителя.
func (p ParentKind) IsValid() bool {
	switch p {
	case ParentClass, ParentSpecialty, ParentEvent:
		return true
	}
	return false
}

// Specialty представляет родительскую сущность требований:
// специализацию, класс или региональное событие.
type Specialty struct {
	// ID - идентификатор (UUID).
	ID string

	// Kind - вид родителя.
	Kind ParentKind

	// Name - название.
	Name string

	// RequiresAssignment - true, если участник должен быть явно записан,
	// прежде чем подавать ответы (специализации назначаются, классы - нет).
	RequiresAssignment bool

	// CreatedAt - время создания.
	CreatedAt time.Time
}

// Validate проверяет инварианты.
func (s *Specialty) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return shared.ErrInvalidID
	}
	if !s.Kind.IsValid() {
		return shared.ErrInvalidInput
	}
	if strings.TrimSpace(s.Name) == "" {
		return shared.ErrEmptyValue
	}
	return nil
}

// Assignment представляет запись участника на специализацию.
type Assignment struct {
	// MemberID - участник.
	MemberID string

	// SpecialtyID - специализация.
	SpecialtyID string

	// AssignedBy - кто записал.
	AssignedBy string

	// AssignedAt - когда записан.
	AssignedAt time.Time
}
