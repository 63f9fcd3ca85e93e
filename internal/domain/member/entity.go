// Package member содержит доменную модель участника клуба следопытов.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package member

import (
	"strings"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ClubID представляет идентификатор клуба.
type ClubID string

// IsValid проверяет, что идентификатор клуба не пустой.
func (c ClubID) IsValid() bool {
	return len(strings.TrimSpace(string(c))) > 0
}

// String возвращает строковое представление.
func (c ClubID) String() string {
	return string(c)
}

// UnitID представляет идентификатор звена внутри клуба.
// Пустое значение означает, что участник не приписан к звену.
type UnitID string

// IsZero возвращает true, если звено не задано.
func (u UnitID) IsZero() bool {
	return strings.TrimSpace(string(u)) == ""
}

// String возвращает строковое представление.
func (u UnitID) String() string {
	return string(u)
}

// Points представляет баланс очков участника.
// Баланс может быть отрицательным после корректировок.
type Points int

// Add складывает очки.
func (p Points) Add(delta Points) Points {
	return p + delta
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Role представляет роль участника в клубе.
type Role string

const (
	// RolePathfinder - следопыт, основной участник программы.
	// Только эта роль учитывается в командных рейтингах.
	RolePathfinder Role = "pathfinder"

	// RoleCounselor - советник звена (взрослый).
	RoleCounselor Role = "counselor"

	// RoleInstructor - инструктор, проверяет ответы участников.
	RoleInstructor Role = "instructor"

	// RoleDirector - директор клуба.
	RoleDirector Role = "director"

	// RoleRegionalAdmin - администратор региона, высший уровень привилегий.
	RoleRegionalAdmin Role = "regional_admin"
)

// IsValid проверяет корректность роли.
func (r Role) IsValid() bool {
	switch r {
	case RolePathfinder, RoleCounselor, RoleInstructor, RoleDirector, RoleRegionalAdmin:
		return true
	}
	return false
}

// IsParticipant возвращает true, если роль участвует в рейтингах.
// Взрослые роли никогда не учитываются в средних показателях клуба/звена.
func (r Role) IsParticipant() bool {
	return r == RolePathfinder
}

// CanReview возвращает true, если роль может утверждать и отклонять ответы.
func (r Role) CanReview() bool {
	switch r {
	case RoleInstructor, RoleCounselor, RoleDirector, RoleRegionalAdmin:
		return true
	}
	return false
}

// CanAward возвращает true, если роль может выдавать специализации напрямую.
func (r Role) CanAward() bool {
	return r == RoleDirector || r == RoleRegionalAdmin
}

// CanPurgeHistory возвращает true, если роль может безвозвратно удалять историю.
// Это единственная операция, нарушающая append-only журнала очков.
func (r Role) CanPurgeHistory() bool {
	return r == RoleRegionalAdmin
}

// Status представляет статус участника.
type Status string

const (
	// StatusActive - активный участник.
	StatusActive Status = "active"

	// StatusInactive - деактивированный участник.
	// Участники никогда не удаляются, только деактивируются.
	StatusInactive Status = "inactive"
)

// IsValid проверяет корректность статуса.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// ══════════════════════════════════════════════════════════════════════════════
// AGE BRACKETS
// ══════════════════════════════════════════════════════════════════════════════

// AgeBracket представляет возрастную группу для рейтингов.
// Программа делит следопытов на две фиксированные группы.
type AgeBracket string

const (
	// BracketJunior - младшая группа (до границы включительно).
	BracketJunior AgeBracket = "junior"

	// BracketSenior - старшая группа.
	BracketSenior AgeBracket = "senior"
)

// bracketBoundaryAge - возраст границы между группами.
// Возраст ровно на границе относится к младшей группе.
const bracketBoundaryAge = 12

// BracketFor вычисляет возрастную группу по дате рождения.
// Возраст считается как разница календарных лет, без учёта дня рождения.
func BracketFor(birthDate time.Time, now time.Time) AgeBracket {
	age := now.Year() - birthDate.Year()
	if age <= bracketBoundaryAge {
		return BracketJunior
	}
	return BracketSenior
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Member представляет участника клуба.
type Member struct {
	// ID - внутренний идентификатор (UUID).
	ID string

	// ClubID - клуб участника. Меняется только администраторами.
	ClubID ClubID

	// UnitID - звено участника (опционально).
	UnitID UnitID

	// DisplayName - отображаемое имя.
	DisplayName string

	// Role - роль участника.
	Role Role

	// BirthDate - дата рождения, определяет возрастную группу.
	BirthDate time.Time

	// PasswordHash - bcrypt-хеш пароля портала.
	PasswordHash string

	// PointsBalance - кешированная сумма записей журнала очков.
	// Источник истины - журнал; кеш пересчитывается при сверке.
	PointsBalance Points

	// Status - статус участника.
	Status Status

	// CreatedAt - время регистрации.
	CreatedAt time.Time

	// UpdatedAt - время последнего изменения.
	UpdatedAt time.Time
}

// NewMember создаёт нового активного участника.
func NewMember(id string, clubID ClubID, unitID UnitID, displayName string, role Role, birthDate time.Time) (*Member, error) {
	if !clubID.IsValid() {
		return nil, shared.ErrInvalidInput
	}
	if !role.IsValid() {
		return nil, shared.ErrInvalidMemberRole
	}
	if birthDate.IsZero() || birthDate.After(time.Now()) {
		return nil, shared.ErrInvalidBirthDate
	}

	now := time.Now().UTC()
	return &Member{
		ID:            id,
		ClubID:        clubID,
		UnitID:        unitID,
		DisplayName:   strings.TrimSpace(displayName),
		Role:          role,
		BirthDate:     birthDate,
		PointsBalance: 0,
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsActive возвращает true, если участник активен.
func (m *Member) IsActive() bool {
	return m.Status == StatusActive
}

// Bracket возвращает возрастную группу участника на текущий момент.
func (m *Member) Bracket() AgeBracket {
	return BracketFor(m.BirthDate, time.Now().UTC())
}

// CountsTowardRankings возвращает true, если участник входит в командные рейтинги.
func (m *Member) CountsTowardRankings() bool {
	return m.IsActive() && m.Role.IsParticipant()
}

// Deactivate деактивирует участника.
func (m *Member) Deactivate() error {
	if m.Status == StatusInactive {
		return shared.ErrInvalidMemberStatus
	}
	m.Status = StatusInactive
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// Reactivate возвращает участника в активный статус.
func (m *Member) Reactivate() error {
	if m.Status == StatusActive {
		return shared.ErrInvalidMemberStatus
	}
	m.Status = StatusActive
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// TransferTo переводит участника в другой клуб/звено.
func (m *Member) TransferTo(clubID ClubID, unitID UnitID) error {
	if !clubID.IsValid() {
		return shared.ErrInvalidInput
	}
	m.ClubID = clubID
	m.UnitID = unitID
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// ApplyBalanceDelta применяет изменение кешированного баланса.
// Вызывается только внутри транзакции вместе с записью в журнал.
func (m *Member) ApplyBalanceDelta(delta Points) {
	m.PointsBalance = m.PointsBalance.Add(delta)
	m.UpdatedAt = time.Now().UTC()
}
