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
// REVOKE APPROVAL COMMAND
// Отзыв утверждения возвращает запись в PENDING и компенсирует
// начисленные очки обратной проводкой. Исходная проводка не удаляется
// и не редактируется - журнал остаётся только для добавления.
// ══════════════════════════════════════════════════════════════════════════════

// RevokeApprovalCommand содержит данные отзыва.
type RevokeApprovalCommand struct {
	// ReviewerID - актор, отзывающий утверждение.
	ReviewerID string

	// MemberID - участник.
	MemberID string

	// ItemID - элемент.
	ItemID string

	// Reason - причина отзыва.
	Reason string
}

// Validate проверяет команду.
func (c RevokeApprovalCommand) Validate() error {
	if c.ReviewerID == "" {
		return errors.New("revoke: reviewer_id is required")
	}
	if c.MemberID == "" {
		return errors.New("revoke: member_id is required")
	}
	if c.ItemID == "" {
		return errors.New("revoke: item_id is required")
	}
	return nil
}

// RevokeApprovalResult содержит результат отзыва.
type RevokeApprovalResult struct {
	// PointsReversed - абсолютная величина компенсированных очков.
	PointsReversed int

	// NewBalance - баланс после компенсации.
	NewBalance int

	// CompletionReverted - завершение родителя откатилось в IN_PROGRESS.
	CompletionReverted bool
}

// RevokeApprovalHandler обрабатывает отзыв утверждения.
type RevokeApprovalHandler struct {
	uow            UnitOfWork
	curriculumRepo curriculum.Repository
	authorizer     member.Authorizer
	eventPublisher shared.EventPublisher
}

// NewRevokeApprovalHandler создаёт обработчик.
func NewRevokeApprovalHandler(
	uow UnitOfWork,
	curriculumRepo curriculum.Repository,
	authorizer member.Authorizer,
	eventPublisher shared.EventPublisher,
) *RevokeApprovalHandler {
	return &RevokeApprovalHandler{
		uow:            uow,
		curriculumRepo: curriculumRepo,
		authorizer:     authorizer,
		eventPublisher: eventPublisher,
	}
}

// Handle отзывает утверждение. APPROVED - единственный источник перехода
// в PENDING без повторной подачи; компенсация ищет последнюю
// некомпенсированную положительную проводку по ссылке на элемент.
func (h *RevokeApprovalHandler) Handle(ctx context.Context, cmd RevokeApprovalCommand) (*RevokeApprovalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("revoke: validation failed: %w", err)
	}

	item, err := h.curriculumRepo.GetItem(ctx, cmd.ItemID)
	if err != nil {
		return nil, fmt.Errorf("revoke: %w", err)
	}

	now := time.Now().UTC()
	result := &RevokeApprovalResult{}

	err = h.uow.Execute(ctx, func(tx TxContext) error {
		m, err := tx.Members().GetByID(ctx, cmd.MemberID)
		if err != nil {
			return err
		}
		if err := h.authorizer.CanReview(ctx, cmd.ReviewerID, m.ClubID); err != nil {
			return err
		}

		rec, err := tx.Progress().GetForUpdate(ctx, cmd.MemberID, cmd.ItemID)
		if err != nil {
			return err
		}
		if err := rec.Revoke(cmd.ReviewerID, now); err != nil {
			return err
		}
		if err := tx.Progress().Upsert(ctx, rec); err != nil {
			return err
		}

		entries, err := tx.Ledger().GetByReference(ctx, cmd.MemberID, cmd.ItemID)
		if err != nil {
			return err
		}
		if grant := latestActiveGrant(entries); grant != nil {
			reason := cmd.Reason
			if reason == "" {
				reason = fmt.Sprintf("revoked: %s", item.Name)
			}
			inv := grant.Inverse(uuid.NewString(), cmd.ReviewerID, reason, now)
			balance, err := tx.Ledger().Append(ctx, inv)
			if err != nil {
				return err
			}
			result.PointsReversed = grant.Amount
			result.NewBalance = balance
		}

		if item.ParentID != "" {
			comp, err := tx.Completions().Get(ctx, cmd.MemberID, item.ParentID)
			if err != nil {
				return err
			}
			if comp.Revert() {
				if err := tx.Completions().Upsert(ctx, comp); err != nil {
					return err
				}
				result.CompletionReverted = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = h.eventPublisher.Publish(shared.NewProgressRevokedEvent(
		cmd.MemberID, cmd.ItemID, cmd.ReviewerID, result.PointsReversed))
	if result.PointsReversed > 0 {
		_ = h.eventPublisher.Publish(shared.NewPointsChangedEvent(
			shared.EventPointsRevoked, cmd.MemberID, "", "requirement",
			-result.PointsReversed, result.NewBalance))
	}
	if result.CompletionReverted {
		_ = h.eventPublisher.Publish(shared.NewSpecialtyRevertedEvent(
			cmd.MemberID, item.ParentID))
	}

	return result, nil
}

// latestActiveGrant находит последнюю положительную проводку по ссылке,
// у которой ещё нет обратной. Повторные циклы утверждение-отзыв
// оставляют в журнале пары проводок; компенсировать можно только
// непарную. Проводки приходят от нового к старому.
func latestActiveGrant(entries []*ledger.Entry) *ledger.Entry {
	reversed := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.ReversesEntryID != "" {
			reversed[e.ReversesEntryID] = true
		}
	}
	for _, e := range entries {
		if e.Amount > 0 && !reversed[e.ID] {
			return e
		}
	}
	return nil
}
