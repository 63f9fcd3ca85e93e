package progress

import (
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SPECIALTY COMPLETION (производный факт)
// COMPLETED достигается только когда все требования специализации утверждены,
// либо через прямую выдачу администратором (отдельный, аудируемый путь).
// ══════════════════════════════════════════════════════════════════════════════

// CompletionStatus представляет состояние завершения специализации.
type CompletionStatus string

const (
	// CompletionInProgress - есть неутверждённые требования.
	CompletionInProgress CompletionStatus = "in_progress"

	// CompletionWaitingApproval - все ответы поданы, часть ждёт проверки.
	CompletionWaitingApproval CompletionStatus = "waiting_approval"

	// CompletionCompleted - все требования утверждены (или прямая выдача).
	CompletionCompleted CompletionStatus = "completed"
)

// IsValid проверяет корректность состояния.
func (s CompletionStatus) IsValid() bool {
	switch s {
	case CompletionInProgress, CompletionWaitingApproval, CompletionCompleted:
		return true
	}
	return false
}

// Completion представляет факт завершения специализации участником.
type Completion struct {
	// MemberID - участник.
	MemberID string

	// SpecialtyID - специализация (или класс, или событие).
	SpecialtyID string

	// Status - состояние завершения.
	Status CompletionStatus

	// AwardedAt - время достижения COMPLETED.
	AwardedAt time.Time

	// AwardedDirectly - true, если выдано администратором в обход
	// отслеживания требований.
	AwardedDirectly bool

	// AwardedBy - кто выдал напрямую (пусто для обычного пути).
	AwardedBy string
}

// NewCompletion создаёт факт в состоянии IN_PROGRESS.
func NewCompletion(memberID, specialtyID string) *Completion {
	return &Completion{
		MemberID:    memberID,
		SpecialtyID: specialtyID,
		Status:      CompletionInProgress,
	}
}

// Complete переводит факт в COMPLETED. Идемпотентно.
func (c *Completion) Complete(now time.Time) bool {
	if c.Status == CompletionCompleted {
		return false
	}
	c.Status = CompletionCompleted
	c.AwardedAt = now
	return true
}

// AwardDirectly выдаёт завершение напрямую, минуя требования.
// Явно именованный путь: его нельзя перепутать с обычным утверждением.
func (c *Completion) AwardDirectly(actorID string, now time.Time) error {
	if c.Status == CompletionCompleted {
		return shared.ErrAlreadyProcessed
	}
	c.Status = CompletionCompleted
	c.AwardedAt = now
	c.AwardedDirectly = true
	c.AwardedBy = actorID
	return nil
}

// Revert возвращает завершённую специализацию в IN_PROGRESS
// (после отзыва одного из требований). Идемпотентно.
func (c *Completion) Revert() bool {
	if c.Status != CompletionCompleted {
		return false
	}
	c.Status = CompletionInProgress
	c.AwardedAt = time.Time{}
	c.AwardedDirectly = false
	c.AwardedBy = ""
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateCompletion вычисляет состояние завершения по записям прогресса
// участника относительно полного списка требований специализации.
// Повторный запуск на уже завершённом состоянии ничего не меняет.
func EvaluateCompletion(requirementItemIDs []string, records map[string]*Record) CompletionStatus {
	if len(requirementItemIDs) == 0 {
		return CompletionInProgress
	}

	allApproved := true
	allSubmitted := true
	for _, itemID := range requirementItemIDs {
		rec, ok := records[itemID]
		if !ok || rec.Status == StatusNotStarted {
			return CompletionInProgress
		}
		if rec.Status != StatusApproved {
			allApproved = false
		}
		if rec.Status == StatusRejected {
			allSubmitted = false
		}
	}

	switch {
	case allApproved:
		return CompletionCompleted
	case allSubmitted:
		return CompletionWaitingApproval
	default:
		return CompletionInProgress
	}
}
