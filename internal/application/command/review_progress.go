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
	"github.com/clube-hub/club-progress-hub/internal/domain/progress"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW PROGRESS COMMANDS (approve / reject)
// Утверждение атомарно: переход состояния, запись в журнал очков,
// обновление кеша баланса и возможное завершение специализации
// фиксируются одной транзакцией. Отклонение журнал не трогает.
// ══════════════════════════════════════════════════════════════════════════════

// ApproveCommand содержит данные утверждения.
type ApproveCommand struct {
	// ReviewerID - проверяющий.
	ReviewerID string

	// MemberID - участник.
	MemberID string

	// ItemID - элемент.
	ItemID string
}

// Validate проверяет команду.
func (c ApproveCommand) Validate() error {
	if c.ReviewerID == "" {
		return errors.New("approve: reviewer_id is required")
	}
	if c.MemberID == "" {
		return errors.New("approve: member_id is required")
	}
	if c.ItemID == "" {
		return errors.New("approve: item_id is required")
	}
	return nil
}

// RejectCommand содержит данные отклонения.
type RejectCommand struct {
	// ReviewerID - проверяющий.
	ReviewerID string

	// MemberID - участник.
	MemberID string

	// ItemID - элемент.
	ItemID string

	// Reason - причина отклонения, обязательна.
	Reason string
}

// Validate проверяет команду.
func (c RejectCommand) Validate() error {
	if c.ReviewerID == "" {
		return errors.New("reject: reviewer_id is required")
	}
	if c.MemberID == "" {
		return errors.New("reject: member_id is required")
	}
	if c.ItemID == "" {
		return errors.New("reject: item_id is required")
	}
	return nil
}

// ReviewResult содержит результат проверки.
type ReviewResult struct {
	// Record - итоговая запись прогресса.
	Record *progress.Record

	// PointsGranted - начисленные очки (0 для отклонения).
	PointsGranted int

	// NewBalance - баланс участника после операции.
	NewBalance int

	// SpecialtyCompleted - специализация завершилась этим утверждением.
	SpecialtyCompleted bool

	// SpecialtyID - родитель элемента, если есть.
	SpecialtyID string
}

// ReviewProgressHandler обрабатывает утверждение и отклонение.
type ReviewProgressHandler struct {
	uow            UnitOfWork
	curriculumRepo curriculum.Repository
	authorizer     member.Authorizer
	eventPublisher shared.EventPublisher
}

// NewReviewProgressHandler создаёт обработчик.
func NewReviewProgressHandler(
	uow UnitOfWork,
	curriculumRepo curriculum.Repository,
	authorizer member.Authorizer,
	eventPublisher shared.EventPublisher,
) *ReviewProgressHandler {
	return &ReviewProgressHandler{
		uow:            uow,
		curriculumRepo: curriculumRepo,
		authorizer:     authorizer,
		eventPublisher: eventPublisher,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Approve
// ─────────────────────────────────────────────────────────────────────────────

// Approve утверждает ожидающую запись. Легально только из PENDING:
// проверка текущего состояния перед изменением делает повтор по
// транзиентной ошибке безопасным - слепого инкремента нет.
func (h *ReviewProgressHandler) Approve(ctx context.Context, cmd ApproveCommand) (*ReviewResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("approve: validation failed: %w", err)
	}

	item, err := h.curriculumRepo.GetItem(ctx, cmd.ItemID)
	if err != nil {
		return nil, fmt.Errorf("approve: %w", err)
	}

	now := time.Now().UTC()
	result := &ReviewResult{SpecialtyID: item.ParentID}

	err = h.uow.Execute(ctx, func(tx TxContext) error {
		m, err := tx.Members().GetByID(ctx, cmd.MemberID)
		if err != nil {
			return err
		}
		if err := h.authorizer.CanReview(ctx, cmd.ReviewerID, m.ClubID); err != nil {
			return err
		}

		// Действующие требования родителя зависят от клуба и региона
		// участника: клубная версия затеняет глобальную. Набор считается
		// здесь, после загрузки участника, чтобы завершение оценивалось
		// по его программе, а не по области видимости утверждаемого
		// элемента.
		siblings, err := h.effectiveSiblingIDs(ctx, tx, item, m)
		if err != nil {
			return err
		}

		rec, err := tx.Progress().GetForUpdate(ctx, cmd.MemberID, cmd.ItemID)
		if err != nil {
			return err
		}
		if err := rec.Approve(cmd.ReviewerID, now); err != nil {
			return err
		}
		if err := tx.Progress().Upsert(ctx, rec); err != nil {
			return err
		}
		result.Record = rec

		if item.PointValue > 0 {
			entry := &ledger.Entry{
				ID:          uuid.NewString(),
				MemberID:    cmd.MemberID,
				Amount:      item.PointValue,
				Source:      ledger.SourceForItemKind(string(item.Kind)),
				ReferenceID: cmd.ItemID,
				Reason:      fmt.Sprintf("approved: %s", item.Name),
				CreatedBy:   cmd.ReviewerID,
				CreatedAt:   now,
			}
			if err := entry.Validate(); err != nil {
				return err
			}
			balance, err := tx.Ledger().Append(ctx, entry)
			if err != nil {
				return err
			}
			result.PointsGranted = item.PointValue
			result.NewBalance = balance
		}

		completed, err := h.refreshCompletion(ctx, tx, cmd.MemberID, item.ParentID, siblings, now)
		if err != nil {
			return err
		}
		result.SpecialtyCompleted = completed
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.publishApproved(cmd, result)
	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reject
// ─────────────────────────────────────────────────────────────────────────────

// Reject отклоняет ожидающую запись с причиной.
// Очки за эту попытку не начислялись, поэтому журнал не меняется.
func (h *ReviewProgressHandler) Reject(ctx context.Context, cmd RejectCommand) (*ReviewResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("reject: validation failed: %w", err)
	}

	now := time.Now().UTC()
	result := &ReviewResult{}

	err := h.uow.Execute(ctx, func(tx TxContext) error {
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
		if err := rec.Reject(cmd.ReviewerID, cmd.Reason, now); err != nil {
			return err
		}
		result.Record = rec
		return tx.Progress().Upsert(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	_ = h.eventPublisher.Publish(shared.NewProgressRejectedEvent(
		cmd.MemberID, cmd.ItemID, cmd.ReviewerID, cmd.Reason))

	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// effectiveSiblingIDs возвращает действующие требования родителя для
// участника: видимые версии группируются по логическому требованию и
// разрешаются по области видимости, так что затенённая глобальная
// версия в набор не попадает. Инвариант - один элемент на требование;
// без него завершение по форку становится недостижимым. Пустой
// список - у элемента нет родителя.
func (h *ReviewProgressHandler) effectiveSiblingIDs(
	ctx context.Context,
	tx TxContext,
	item *curriculum.Item,
	m *member.Member,
) ([]string, error) {
	if item.ParentID == "" {
		return nil, nil
	}

	regionID, err := tx.Members().ClubRegion(ctx, m.ClubID)
	if err != nil {
		return nil, err
	}

	items, err := h.curriculumRepo.GetItemsByParent(ctx, item.ParentID, m.ClubID, regionID)
	if err != nil {
		return nil, err
	}
	effective, err := curriculum.ResolveEffectiveSet(items, m.ClubID, regionID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(effective))
	for _, it := range effective {
		ids = append(ids, it.ID)
	}
	return ids, nil
}

// refreshCompletion пересчитывает факт завершения родителя внутри
// транзакции утверждения. Идемпотентно: уже завершённое состояние
// не меняется.
func (h *ReviewProgressHandler) refreshCompletion(
	ctx context.Context,
	tx TxContext,
	memberID, parentID string,
	siblingIDs []string,
	now time.Time,
) (bool, error) {
	if parentID == "" || len(siblingIDs) == 0 {
		return false, nil
	}

	records, err := tx.Progress().GetByMemberAndItems(ctx, memberID, siblingIDs)
	if err != nil {
		return false, err
	}

	status := progress.EvaluateCompletion(siblingIDs, records)
	comp, err := tx.Completions().Get(ctx, memberID, parentID)
	if err != nil {
		return false, err
	}

	switch status {
	case progress.CompletionCompleted:
		if comp.Complete(now) {
			return true, tx.Completions().Upsert(ctx, comp)
		}
		return false, nil
	case progress.CompletionWaitingApproval:
		if comp.Status != progress.CompletionCompleted && comp.Status != status {
			comp.Status = status
			return false, tx.Completions().Upsert(ctx, comp)
		}
		return false, nil
	default:
		return false, nil
	}
}

func (h *ReviewProgressHandler) publishApproved(cmd ApproveCommand, result *ReviewResult) {
	_ = h.eventPublisher.Publish(shared.NewProgressApprovedEvent(
		cmd.MemberID, cmd.ItemID, cmd.ReviewerID, result.PointsGranted))

	if result.PointsGranted > 0 {
		_ = h.eventPublisher.Publish(shared.NewPointsChangedEvent(
			shared.EventPointsGranted, cmd.MemberID, "", "requirement",
			result.PointsGranted, result.NewBalance))
	}
	if result.SpecialtyCompleted {
		_ = h.eventPublisher.Publish(shared.NewSpecialtyCompletedEvent(
			cmd.MemberID, result.SpecialtyID, false))
	}
}
