package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clube-hub/club-progress-hub/internal/domain/ledger"
	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BULK AWARD COMMAND
// Массовое начисление очков за мероприятие: каждому участнику - своя
// транзакция. Отказ по одному участнику не откатывает остальных,
// результат сообщается поимённо.
// ══════════════════════════════════════════════════════════════════════════════

// BulkAwardCommand содержит данные массового начисления.
type BulkAwardCommand struct {
	// ActorID - кто начисляет.
	ActorID string

	// MemberIDs - получатели.
	MemberIDs []string

	// Amount - очки каждому получателю, строго положительные.
	Amount int

	// ActivityID - мероприятие, ссылка для журнала.
	ActivityID string

	// Reason - описание начисления.
	Reason string
}

// Validate проверяет команду.
func (c BulkAwardCommand) Validate() error {
	if c.ActorID == "" {
		return errors.New("bulk award: actor_id is required")
	}
	if len(c.MemberIDs) == 0 {
		return errors.New("bulk award: member_ids is empty")
	}
	if c.Amount <= 0 {
		return errors.New("bulk award: amount must be positive")
	}
	if c.ActivityID == "" {
		return errors.New("bulk award: activity_id is required")
	}
	return nil
}

// BulkAwardOutcome - результат начисления одному участнику.
type BulkAwardOutcome struct {
	// MemberID - участник.
	MemberID string

	// NewBalance - баланс после начисления (при успехе).
	NewBalance int

	// Err - причина отказа, nil при успехе.
	Err error
}

// BulkAwardResult - сводка массового начисления.
type BulkAwardResult struct {
	// Outcomes - поимённые результаты в порядке запроса.
	Outcomes []BulkAwardOutcome

	// Succeeded - число успешных начислений.
	Succeeded int

	// Failed - число отказов.
	Failed int
}

// BulkAwardHandler обрабатывает массовое начисление.
type BulkAwardHandler struct {
	uow            UnitOfWork
	authorizer     member.Authorizer
	eventPublisher shared.EventPublisher
}

// NewBulkAwardHandler создаёт обработчик.
func NewBulkAwardHandler(uow UnitOfWork, authorizer member.Authorizer, eventPublisher shared.EventPublisher) *BulkAwardHandler {
	return &BulkAwardHandler{
		uow:            uow,
		authorizer:     authorizer,
		eventPublisher: eventPublisher,
	}
}

// Handle начисляет очки списку участников. Дубликаты в списке
// схлопываются: двойного начисления за одно мероприятие не будет.
func (h *BulkAwardHandler) Handle(ctx context.Context, cmd BulkAwardCommand) (*BulkAwardResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("bulk award: validation failed: %w", err)
	}

	result := &BulkAwardResult{}
	seen := make(map[string]bool, len(cmd.MemberIDs))

	for _, memberID := range cmd.MemberIDs {
		if seen[memberID] {
			continue
		}
		seen[memberID] = true

		balance, err := h.awardOne(ctx, cmd, memberID)
		outcome := BulkAwardOutcome{MemberID: memberID, NewBalance: balance, Err: err}
		result.Outcomes = append(result.Outcomes, outcome)
		if err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++

		_ = h.eventPublisher.Publish(shared.NewPointsChangedEvent(
			shared.EventPointsGranted, memberID, "", string(ledger.SourceActivity),
			cmd.Amount, balance))
	}

	return result, nil
}

func (h *BulkAwardHandler) awardOne(ctx context.Context, cmd BulkAwardCommand, memberID string) (int, error) {
	now := time.Now().UTC()
	var balance int

	err := h.uow.Execute(ctx, func(tx TxContext) error {
		m, err := tx.Members().GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		if err := h.authorizer.CanAward(ctx, cmd.ActorID, m.ClubID); err != nil {
			return err
		}
		if m.Status != member.StatusActive {
			return shared.ErrMemberNotActive
		}

		entry := &ledger.Entry{
			ID:          uuid.NewString(),
			MemberID:    memberID,
			Amount:      cmd.Amount,
			Source:      ledger.SourceActivity,
			ReferenceID: cmd.ActivityID,
			Reason:      cmd.Reason,
			CreatedBy:   cmd.ActorID,
			CreatedAt:   now,
		}
		if err := entry.Validate(); err != nil {
			return err
		}
		balance, err = tx.Ledger().Append(ctx, entry)
		return err
	})
	return balance, err
}
