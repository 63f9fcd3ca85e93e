package query

import (
	"context"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/ledger"
	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BALANCE QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// BalanceView - баланс участника с выдержкой истории.
type BalanceView struct {
	// MemberID - участник.
	MemberID string

	// Balance - кешированный баланс.
	Balance int

	// History - проводки по фильтру, от новых к старым.
	History []*ledger.Entry
}

// GetBalanceHandler возвращает балансы и историю журнала.
type GetBalanceHandler struct {
	memberRepo member.Repository
	ledgerRepo ledger.Repository
}

// NewGetBalanceHandler создаёт обработчик.
func NewGetBalanceHandler(memberRepo member.Repository, ledgerRepo ledger.Repository) *GetBalanceHandler {
	return &GetBalanceHandler{memberRepo: memberRepo, ledgerRepo: ledgerRepo}
}

// Balance возвращает кешированный баланс участника.
func (h *GetBalanceHandler) Balance(ctx context.Context, memberID string) (int, error) {
	if memberID == "" {
		return 0, shared.ErrInvalidID
	}
	if _, err := h.memberRepo.GetByID(ctx, memberID); err != nil {
		return 0, err
	}
	return h.ledgerRepo.Balance(ctx, memberID)
}

// PointsInWindow возвращает сумму проводок участника за окно времени.
// Нулевая граница оставляет свою сторону окна открытой. Кешированный
// баланс не используется: сумма за период считается прямо по журналу.
func (h *GetBalanceHandler) PointsInWindow(ctx context.Context, memberID string, from, to time.Time) (int, error) {
	if memberID == "" {
		return 0, shared.ErrInvalidID
	}
	if _, err := h.memberRepo.GetByID(ctx, memberID); err != nil {
		return 0, err
	}
	return h.ledgerRepo.SumInWindow(ctx, memberID, from, to)
}

// History возвращает баланс вместе с историей проводок.
// История восстановима: повторный запрос с теми же границами вернёт
// тот же срез, потому что журнал не переписывается.
func (h *GetBalanceHandler) History(ctx context.Context, memberID string, filter ledger.HistoryFilter) (*BalanceView, error) {
	if memberID == "" {
		return nil, shared.ErrInvalidID
	}
	if _, err := h.memberRepo.GetByID(ctx, memberID); err != nil {
		return nil, err
	}

	balance, err := h.ledgerRepo.Balance(ctx, memberID)
	if err != nil {
		return nil, err
	}
	entries, err := h.ledgerRepo.History(ctx, memberID, filter)
	if err != nil {
		return nil, err
	}

	return &BalanceView{
		MemberID: memberID,
		Balance:  balance,
		History:  entries,
	}, nil
}
