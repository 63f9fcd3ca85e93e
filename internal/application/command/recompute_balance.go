package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clube-hub/club-progress-hub/internal/domain/ledger"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE BALANCE COMMAND
// Сверка кешированного баланса с суммой журнала. Расхождение - ошибка
// целостности данных: кеш исправляется по журналу, а факт дрейфа
// фиксируется и в журнале действий, и событием для дежурных.
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeResult содержит результат сверки одного участника.
type RecomputeResult struct {
	// MemberID - участник.
	MemberID string

	// CachedBalance - баланс до сверки.
	CachedBalance int

	// ActualBalance - сумма журнала.
	ActualBalance int

	// Drifted - кеш расходился с журналом.
	Drifted bool
}

// RecomputeBalanceHandler обрабатывает сверку балансов.
type RecomputeBalanceHandler struct {
	uow            UnitOfWork
	eventPublisher shared.EventPublisher
}

// NewRecomputeBalanceHandler создаёт обработчик.
func NewRecomputeBalanceHandler(uow UnitOfWork, eventPublisher shared.EventPublisher) *RecomputeBalanceHandler {
	return &RecomputeBalanceHandler{
		uow:            uow,
		eventPublisher: eventPublisher,
	}
}

// Handle сверяет баланс одного участника и исправляет кеш по журналу.
func (h *RecomputeBalanceHandler) Handle(ctx context.Context, memberID string) (*RecomputeResult, error) {
	if memberID == "" {
		return nil, shared.ErrInvalidID
	}

	result := &RecomputeResult{MemberID: memberID}

	err := h.uow.Execute(ctx, func(tx TxContext) error {
		if _, err := tx.Members().GetByID(ctx, memberID); err != nil {
			return err
		}

		cached, actual, err := tx.Ledger().Recompute(ctx, memberID)
		if err != nil {
			return err
		}
		result.CachedBalance = cached
		result.ActualBalance = actual
		result.Drifted = cached != actual

		if !result.Drifted {
			return nil
		}
		return tx.Audit().Record(ctx, &ledger.AdminAction{
			ID:       uuid.NewString(),
			ActorID:  "system",
			Action:   "balance_drift_corrected",
			MemberID: memberID,
			Details: map[string]interface{}{
				"cached_balance": cached,
				"actual_balance": actual,
			},
			CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Drifted {
		_ = h.eventPublisher.Publish(shared.NewAdminActionEvent(
			shared.EventDriftDetected, "system", "balance_drift_corrected", memberID,
			map[string]interface{}{
				"cached_balance": result.CachedBalance,
				"actual_balance": result.ActualBalance,
			}))
	}
	return result, nil
}
