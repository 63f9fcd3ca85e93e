package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clube-hub/club-progress-hub/internal/domain/curriculum"
	"github.com/clube-hub/club-progress-hub/internal/domain/ledger"
	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD SPECIALTY COMMAND
// Прямая выдача специализации минует проверку требований: наставник
// подтверждает работу, выполненную вне системы. Завершение помечается
// как выданное напрямую и фиксируется в журнале действий администратора.
// Очки за отдельные требования при этом не начисляются.
// ══════════════════════════════════════════════════════════════════════════════

// AwardSpecialtyCommand содержит данные прямой выдачи.
type AwardSpecialtyCommand struct {
	// ActorID - кто выдаёт.
	ActorID string

	// MemberID - участник.
	MemberID string

	// SpecialtyID - выдаваемая специализация.
	SpecialtyID string

	// Reason - обоснование выдачи для журнала.
	Reason string
}

// Validate проверяет команду.
func (c AwardSpecialtyCommand) Validate() error {
	if c.ActorID == "" {
		return errors.New("award: actor_id is required")
	}
	if c.MemberID == "" {
		return errors.New("award: member_id is required")
	}
	if c.SpecialtyID == "" {
		return errors.New("award: specialty_id is required")
	}
	return nil
}

// AwardSpecialtyHandler обрабатывает прямую выдачу специализации.
type AwardSpecialtyHandler struct {
	uow            UnitOfWork
	curriculumRepo curriculum.Repository
	authorizer     member.Authorizer
	eventPublisher shared.EventPublisher
}

// NewAwardSpecialtyHandler создаёт обработчик.
func NewAwardSpecialtyHandler(
	uow UnitOfWork,
	curriculumRepo curriculum.Repository,
	authorizer member.Authorizer,
	eventPublisher shared.EventPublisher,
) *AwardSpecialtyHandler {
	return &AwardSpecialtyHandler{
		uow:            uow,
		curriculumRepo: curriculumRepo,
		authorizer:     authorizer,
		eventPublisher: eventPublisher,
	}
}

// Handle выдаёт специализацию напрямую. Повторная выдача уже
// завершённой специализации - ошибка, а не тихий успех: вызывающий
// должен узнать, что состояние не то, которое он предполагал.
func (h *AwardSpecialtyHandler) Handle(ctx context.Context, cmd AwardSpecialtyCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("award: validation failed: %w", err)
	}

	if _, err := h.curriculumRepo.GetSpecialty(ctx, cmd.SpecialtyID); err != nil {
		return fmt.Errorf("award: %w", err)
	}

	now := time.Now().UTC()

	err := h.uow.Execute(ctx, func(tx TxContext) error {
		m, err := tx.Members().GetByID(ctx, cmd.MemberID)
		if err != nil {
			return err
		}
		if err := h.authorizer.CanAward(ctx, cmd.ActorID, m.ClubID); err != nil {
			return err
		}

		comp, err := tx.Completions().Get(ctx, cmd.MemberID, cmd.SpecialtyID)
		if err != nil {
			return err
		}
		if err := comp.AwardDirectly(cmd.ActorID, now); err != nil {
			return err
		}
		if err := tx.Completions().Upsert(ctx, comp); err != nil {
			return err
		}

		return tx.Audit().Record(ctx, &ledger.AdminAction{
			ID:       uuid.NewString(),
			ActorID:  cmd.ActorID,
			Action:   "award_specialty",
			MemberID: cmd.MemberID,
			ItemID:   cmd.SpecialtyID,
			Details: map[string]interface{}{
				"reason": cmd.Reason,
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return err
	}

	_ = h.eventPublisher.Publish(shared.NewSpecialtyCompletedEvent(
		cmd.MemberID, cmd.SpecialtyID, true))
	return nil
}
