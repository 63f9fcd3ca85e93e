package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER MEMBER COMMAND
// Регистрация участника портала. Пароль хешируется bcrypt и нигде
// не логируется.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterMemberCommand содержит данные регистрации.
type RegisterMemberCommand struct {
	// ClubID - клуб участника.
	ClubID string

	// UnitID - звено (опционально).
	UnitID string

	// DisplayName - отображаемое имя.
	DisplayName string

	// Role - роль участника.
	Role string

	// BirthDate - дата рождения.
	BirthDate time.Time

	// Password - пароль портала в открытом виде, хешируется немедленно.
	Password string
}

// Validate проверяет команду.
func (c RegisterMemberCommand) Validate() error {
	if c.ClubID == "" {
		return errors.New("register: club_id is required")
	}
	if c.DisplayName == "" {
		return errors.New("register: display_name is required")
	}
	if len(c.Password) < 8 {
		return errors.New("register: password must be at least 8 characters")
	}
	return nil
}

// RegisterMemberResult содержит результат регистрации.
type RegisterMemberResult struct {
	// Member - созданный участник.
	Member *member.Member
}

// RegisterMemberHandler обрабатывает регистрацию.
type RegisterMemberHandler struct {
	memberRepo     member.Repository
	eventPublisher shared.EventPublisher
}

// NewRegisterMemberHandler создаёт обработчик.
func NewRegisterMemberHandler(memberRepo member.Repository, eventPublisher shared.EventPublisher) *RegisterMemberHandler {
	return &RegisterMemberHandler{
		memberRepo:     memberRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle регистрирует нового участника.
func (h *RegisterMemberHandler) Handle(ctx context.Context, cmd RegisterMemberCommand) (*RegisterMemberResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("register: validation failed: %w", err)
	}

	m, err := member.NewMember(
		uuid.NewString(),
		member.ClubID(cmd.ClubID),
		member.UnitID(cmd.UnitID),
		cmd.DisplayName,
		member.Role(cmd.Role),
		cmd.BirthDate,
	)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hashing password: %w", err)
	}
	m.PasswordHash = string(hash)

	if err := h.memberRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewMemberRegisteredEvent(
		m.ID, m.ClubID.String(), m.UnitID.String(), m.DisplayName, string(m.Role)))

	return &RegisterMemberResult{Member: m}, nil
}
