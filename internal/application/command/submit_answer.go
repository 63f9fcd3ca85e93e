package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/curriculum"
	"github.com/clube-hub/club-progress-hub/internal/domain/progress"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ANSWER COMMAND
// Участник подаёт ответ на требование. Команда не касается журнала очков:
// запись становится PENDING и ждёт проверки инструктором.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAnswerCommand содержит данные подачи ответа.
type SubmitAnswerCommand struct {
	// MemberID - участник, подающий ответ.
	MemberID string

	// ItemID - элемент (строка после разрешения области видимости).
	ItemID string

	// Text - текстовый ответ.
	Text string

	// FileRef - ссылка на файл во внешнем хранилище.
	FileRef string

	// Quiz - ответы теста.
	Quiz map[string]string

	// SubmittedAt - время подачи (нулевое = сейчас).
	SubmittedAt time.Time
}

// Validate проверяет команду.
func (c SubmitAnswerCommand) Validate() error {
	if c.MemberID == "" {
		return errors.New("submit_answer: member_id is required")
	}
	if c.ItemID == "" {
		return errors.New("submit_answer: item_id is required")
	}
	return nil
}

// Answer собирает доменный ответ из полей команды.
func (c SubmitAnswerCommand) Answer() progress.Answer {
	return progress.Answer{Text: c.Text, FileRef: c.FileRef, Quiz: c.Quiz}
}

// SubmitAnswerResult содержит результат подачи.
type SubmitAnswerResult struct {
	// Record - итоговая запись прогресса.
	Record *progress.Record

	// Resubmission - true, если это повторная подача после отклонения.
	Resubmission bool
}

// SubmitAnswerHandler обрабатывает SubmitAnswerCommand.
type SubmitAnswerHandler struct {
	uow            UnitOfWork
	curriculumRepo curriculum.Repository
	assignments    curriculum.AssignmentRepository
	eventPublisher shared.EventPublisher
}

// NewSubmitAnswerHandler создаёт обработчик.
func NewSubmitAnswerHandler(
	uow UnitOfWork,
	curriculumRepo curriculum.Repository,
	assignments curriculum.AssignmentRepository,
	eventPublisher shared.EventPublisher,
) *SubmitAnswerHandler {
	return &SubmitAnswerHandler{
		uow:            uow,
		curriculumRepo: curriculumRepo,
		assignments:    assignments,
		eventPublisher: eventPublisher,
	}
}

// Handle исполняет команду.
func (h *SubmitAnswerHandler) Handle(ctx context.Context, cmd SubmitAnswerCommand) (*SubmitAnswerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("submit_answer: validation failed: %w", err)
	}

	now := cmd.SubmittedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	item, err := h.curriculumRepo.GetItem(ctx, cmd.ItemID)
	if err != nil {
		return nil, fmt.Errorf("submit_answer: %w", err)
	}
	if !item.SubmittableAt(now) {
		return nil, shared.ErrItemOutsideWindow
	}
	if !cmd.Answer().MatchesType(item.AnswerType) {
		return nil, shared.ErrAnswerRequired
	}

	// Специализации назначаются явно: без записи подача запрещена.
	if err := h.checkAssignment(ctx, cmd.MemberID, item); err != nil {
		return nil, err
	}

	result := &SubmitAnswerResult{}
	err = h.uow.Execute(ctx, func(tx TxContext) error {
		m, err := tx.Members().GetByID(ctx, cmd.MemberID)
		if err != nil {
			return err
		}
		if !m.IsActive() {
			return shared.ErrMemberNotActive
		}

		rec, err := tx.Progress().GetForUpdate(ctx, cmd.MemberID, cmd.ItemID)
		switch {
		case err == nil:
			result.Resubmission = rec.Status == progress.StatusRejected
			if err := rec.Submit(cmd.Answer(), now); err != nil {
				return err
			}
		case shared.IsNotFound(err):
			rec = progress.NewRecord(cmd.MemberID, cmd.ItemID, cmd.Answer(), now)
		default:
			return err
		}

		result.Record = rec
		return tx.Progress().Upsert(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	_ = h.eventPublisher.Publish(shared.NewAnswerSubmittedEvent(
		cmd.MemberID, cmd.ItemID, string(item.Kind), result.Resubmission))

	return result, nil
}

// checkAssignment проверяет запись на специализацию для требований,
// родитель которых требует явного назначения.
func (h *SubmitAnswerHandler) checkAssignment(ctx context.Context, memberID string, item *curriculum.Item) error {
	if item.Kind != curriculum.KindSpecialtyRequirement {
		return nil
	}

	parent, err := h.curriculumRepo.GetSpecialty(ctx, item.ParentID)
	if err != nil {
		return err
	}
	if !parent.RequiresAssignment {
		return nil
	}

	assigned, err := h.assignments.IsAssigned(ctx, memberID, parent.ID)
	if err != nil {
		return err
	}
	if !assigned {
		return shared.ErrItemNotAssigned
	}
	return nil
}
