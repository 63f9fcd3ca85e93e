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
// DELETE HISTORY COMMAND
// Безвозвратное удаление записи прогресса вместе со связанными
// проводками. Единственная операция, нарушающая append-only журнала,
// поэтому право на неё отдельное, а факт обязателен в журнале действий
// администратора. Кешированный баланс уменьшается на сумму удалённых
// проводок в той же транзакции.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteHistoryCommand содержит данные удаления.
type DeleteHistoryCommand struct {
	// ActorID - кто удаляет.
	ActorID string

	// MemberID - участник.
	MemberID string

	// ItemID - элемент, чью историю удаляем.
	ItemID string

	// Reason - обоснование для журнала.
	Reason string
}

// Validate проверяет команду.
func (c DeleteHistoryCommand) Validate() error {
	if c.ActorID == "" {
		return errors.New("delete history: actor_id is required")
	}
	if c.MemberID == "" {
		return errors.New("delete history: member_id is required")
	}
	if c.ItemID == "" {
		return errors.New("delete history: item_id is required")
	}
	if c.Reason == "" {
		return errors.New("delete history: reason is required")
	}
	return nil
}

// DeleteHistoryResult содержит результат удаления.
type DeleteHistoryResult struct {
	// PointsRemoved - суммарная величина удалённых проводок.
	PointsRemoved int
}

// DeleteHistoryHandler обрабатывает удаление истории.
type DeleteHistoryHandler struct {
	uow            UnitOfWork
	authorizer     member.Authorizer
	eventPublisher shared.EventPublisher
}

// NewDeleteHistoryHandler создаёт обработчик.
func NewDeleteHistoryHandler(uow UnitOfWork, authorizer member.Authorizer, eventPublisher shared.EventPublisher) *DeleteHistoryHandler {
	return &DeleteHistoryHandler{
		uow:            uow,
		authorizer:     authorizer,
		eventPublisher: eventPublisher,
	}
}

// Handle удаляет запись прогресса и связанные проводки.
func (h *DeleteHistoryHandler) Handle(ctx context.Context, cmd DeleteHistoryCommand) (*DeleteHistoryResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("delete history: validation failed: %w", err)
	}
	if err := h.authorizer.CanPurgeHistory(ctx, cmd.ActorID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &DeleteHistoryResult{}

	err := h.uow.Execute(ctx, func(tx TxContext) error {
		if _, err := tx.Members().GetByID(ctx, cmd.MemberID); err != nil {
			return err
		}

		// Блокировка сериализует удаление с параллельным утверждением
		// той же записи. NOT_STARTED (нет строки) - тоже легальное
		// состояние: удалять тогда нечего, кроме возможных проводок.
		if _, err := tx.Progress().GetForUpdate(ctx, cmd.MemberID, cmd.ItemID); err != nil {
			if !shared.IsNotFound(err) {
				return err
			}
		} else if err := tx.Progress().Delete(ctx, cmd.MemberID, cmd.ItemID); err != nil {
			return err
		}

		removed, err := tx.Ledger().DeleteByReference(ctx, cmd.MemberID, cmd.ItemID)
		if err != nil {
			return err
		}
		result.PointsRemoved = removed

		return tx.Audit().Record(ctx, &ledger.AdminAction{
			ID:       uuid.NewString(),
			ActorID:  cmd.ActorID,
			Action:   "delete_history",
			MemberID: cmd.MemberID,
			ItemID:   cmd.ItemID,
			Details: map[string]interface{}{
				"reason":         cmd.Reason,
				"points_removed": removed,
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	_ = h.eventPublisher.Publish(shared.NewAdminActionEvent(
		shared.EventHistoryDeleted, cmd.ActorID, "delete_history", cmd.MemberID,
		map[string]interface{}{
			"item_id":        cmd.ItemID,
			"points_removed": result.PointsRemoved,
		}))
	return result, nil
}
