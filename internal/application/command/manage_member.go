package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MANAGE MEMBER COMMANDS (deactivate / reactivate / transfer)
// Участники никогда не удаляются: история прогресса и журнал очков
// должны оставаться привязанными к реальному человеку.
// ══════════════════════════════════════════════════════════════════════════════

// ManageMemberHandler обрабатывает административные операции над участником.
type ManageMemberHandler struct {
	memberRepo     member.Repository
	authorizer     member.Authorizer
	eventPublisher shared.EventPublisher
}

// NewManageMemberHandler создаёт обработчик.
func NewManageMemberHandler(memberRepo member.Repository, authorizer member.Authorizer, eventPublisher shared.EventPublisher) *ManageMemberHandler {
	return &ManageMemberHandler{
		memberRepo:     memberRepo,
		authorizer:     authorizer,
		eventPublisher: eventPublisher,
	}
}

// Deactivate деактивирует участника. Он пропадает из рейтингов,
// но история и баланс сохраняются.
func (h *ManageMemberHandler) Deactivate(ctx context.Context, actorID, memberID string) error {
	return h.mutate(ctx, actorID, memberID, shared.EventMemberDeactivated,
		func(m *member.Member) error { return m.Deactivate() })
}

// Reactivate возвращает участника в активный статус.
func (h *ManageMemberHandler) Reactivate(ctx context.Context, actorID, memberID string) error {
	return h.mutate(ctx, actorID, memberID, shared.EventMemberReactivated,
		func(m *member.Member) error { return m.Reactivate() })
}

// Transfer переводит участника в другой клуб/звено. Баланс и прогресс
// переезжают вместе с участником; рейтинги нового клуба подхватят его
// при следующем пересчёте.
func (h *ManageMemberHandler) Transfer(ctx context.Context, actorID, memberID, clubID, unitID string) error {
	if clubID == "" {
		return errors.New("transfer: club_id is required")
	}
	return h.mutate(ctx, actorID, memberID, shared.EventMemberTransferred,
		func(m *member.Member) error {
			return m.TransferTo(member.ClubID(clubID), member.UnitID(unitID))
		})
}

func (h *ManageMemberHandler) mutate(
	ctx context.Context,
	actorID, memberID string,
	eventType shared.EventType,
	fn func(*member.Member) error,
) error {
	if actorID == "" || memberID == "" {
		return shared.ErrInvalidID
	}

	m, err := h.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("manage member: %w", err)
	}
	if err := h.authorizer.CanAward(ctx, actorID, m.ClubID); err != nil {
		return err
	}
	if err := fn(m); err != nil {
		return err
	}
	if err := h.memberRepo.Update(ctx, m); err != nil {
		return fmt.Errorf("manage member: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewAdminActionEvent(
		eventType, actorID, string(eventType), memberID,
		map[string]interface{}{
			"club_id": m.ClubID.String(),
			"unit_id": m.UnitID.String(),
		}))
	return nil
}
