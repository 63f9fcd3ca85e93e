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
// ADJUST POINTS / RESET BALANCE COMMANDS
// Ручная корректировка - обычная проводка со знаком и причиной.
// Сброс баланса - отдельный привилегированный путь: журнал получает
// погашающую проводку balance_reset на текущую сумму, кеш обнуляется,
// факт фиксируется в журнале действий администратора. Смешивать эти
// пути нельзя.
// ══════════════════════════════════════════════════════════════════════════════

// AdjustPointsCommand содержит данные ручной корректировки.
type AdjustPointsCommand struct {
	// ActorID - кто корректирует.
	ActorID string

	// MemberID - участник.
	MemberID string

	// Amount - знаковая дельта, не ноль.
	Amount int

	// Reason - причина корректировки, обязательна.
	Reason string
}

// Validate проверяет команду.
func (c AdjustPointsCommand) Validate() error {
	if c.ActorID == "" {
		return errors.New("adjust: actor_id is required")
	}
	if c.MemberID == "" {
		return errors.New("adjust: member_id is required")
	}
	if c.Amount == 0 {
		return shared.ErrZeroAmount
	}
	if c.Reason == "" {
		return errors.New("adjust: reason is required")
	}
	return nil
}

// ResetBalanceCommand содержит данные сброса баланса.
type ResetBalanceCommand struct {
	// ActorID - кто сбрасывает.
	ActorID string

	// MemberID - участник.
	MemberID string

	// Reason - обоснование для журнала.
	Reason string
}

// Validate проверяет команду.
func (c ResetBalanceCommand) Validate() error {
	if c.ActorID == "" {
		return errors.New("reset balance: actor_id is required")
	}
	if c.MemberID == "" {
		return errors.New("reset balance: member_id is required")
	}
	if c.Reason == "" {
		return errors.New("reset balance: reason is required")
	}
	return nil
}

// AdjustPointsHandler обрабатывает корректировки и сбросы баланса.
type AdjustPointsHandler struct {
	uow            UnitOfWork
	authorizer     member.Authorizer
	eventPublisher shared.EventPublisher
}

// NewAdjustPointsHandler создаёт обработчик.
func NewAdjustPointsHandler(uow UnitOfWork, authorizer member.Authorizer, eventPublisher shared.EventPublisher) *AdjustPointsHandler {
	return &AdjustPointsHandler{
		uow:            uow,
		authorizer:     authorizer,
		eventPublisher: eventPublisher,
	}
}

// Adjust применяет ручную корректировку и возвращает новый баланс.
func (h *AdjustPointsHandler) Adjust(ctx context.Context, cmd AdjustPointsCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, fmt.Errorf("adjust: validation failed: %w", err)
	}

	now := time.Now().UTC()
	var balance int

	err := h.uow.Execute(ctx, func(tx TxContext) error {
		m, err := tx.Members().GetByID(ctx, cmd.MemberID)
		if err != nil {
			return err
		}
		if err := h.authorizer.CanAward(ctx, cmd.ActorID, m.ClubID); err != nil {
			return err
		}

		entry := &ledger.Entry{
			ID:        uuid.NewString(),
			MemberID:  cmd.MemberID,
			Amount:    cmd.Amount,
			Source:    ledger.SourceManualAdjustment,
			Reason:    cmd.Reason,
			CreatedBy: cmd.ActorID,
			CreatedAt: now,
		}
		if err := entry.Validate(); err != nil {
			return err
		}
		balance, err = tx.Ledger().Append(ctx, entry)
		return err
	})
	if err != nil {
		return 0, err
	}

	_ = h.eventPublisher.Publish(shared.NewPointsChangedEvent(
		shared.EventPointsAdjusted, cmd.MemberID, "",
		string(ledger.SourceManualAdjustment), cmd.Amount, balance))
	return balance, nil
}

// ResetBalance обнуляет баланс участника. История не стирается: журнал
// получает погашающую проводку balance_reset на текущую сумму, поэтому
// сумма журнала становится нулевой и сверка балансов сброс не отменяет.
// Кеш после проводки ставится в ноль жёстко - возможный дрейф кеша до
// сброса не должен его пережить.
func (h *AdjustPointsHandler) ResetBalance(ctx context.Context, cmd ResetBalanceCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("reset balance: validation failed: %w", err)
	}

	now := time.Now().UTC()

	err := h.uow.Execute(ctx, func(tx TxContext) error {
		if err := h.authorizer.CanPurgeHistory(ctx, cmd.ActorID); err != nil {
			return err
		}
		if _, err := tx.Members().GetByID(ctx, cmd.MemberID); err != nil {
			return err
		}

		sum, err := tx.Ledger().SumEntries(ctx, cmd.MemberID)
		if err != nil {
			return err
		}
		if sum != 0 {
			entry := &ledger.Entry{
				ID:        uuid.NewString(),
				MemberID:  cmd.MemberID,
				Amount:    -sum,
				Source:    ledger.SourceBalanceReset,
				Reason:    cmd.Reason,
				CreatedBy: cmd.ActorID,
				CreatedAt: now,
			}
			if err := entry.Validate(); err != nil {
				return err
			}
			if _, err := tx.Ledger().Append(ctx, entry); err != nil {
				return err
			}
		}
		if err := tx.Ledger().ResetBalance(ctx, cmd.MemberID); err != nil {
			return err
		}

		return tx.Audit().Record(ctx, &ledger.AdminAction{
			ID:       uuid.NewString(),
			ActorID:  cmd.ActorID,
			Action:   "reset_balance",
			MemberID: cmd.MemberID,
			Details: map[string]interface{}{
				"reason":       cmd.Reason,
				"reversed_sum": sum,
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return err
	}

	_ = h.eventPublisher.Publish(shared.NewPointsChangedEvent(
		shared.EventBalanceReset, cmd.MemberID, "",
		string(ledger.SourceBalanceReset), 0, 0))
	return nil
}
