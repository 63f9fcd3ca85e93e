package member

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// ListOptions задаёт пагинацию и сортировку для выборок.
type ListOptions struct {
	// Limit - максимум записей (0 = без ограничения).
	Limit int

	// Offset - смещение от начала выборки.
	Offset int
}

// Repository определяет основные операции для участников.
type Repository interface {
	// Create создаёт нового участника.
	// Возвращает ErrMemberAlreadyExists, если участник уже существует.
	Create(ctx context.Context, m *Member) error

	// GetByID возвращает участника по внутреннему ID.
	// Возвращает ErrMemberNotFound, если участник не найден.
	GetByID(ctx context.Context, id string) (*Member, error)

	// Update обновляет данные участника.
	// Возвращает ErrMemberNotFound, если участник не найден.
	Update(ctx context.Context, m *Member) error

	// GetByClub возвращает участников клуба.
	GetByClub(ctx context.Context, clubID ClubID, opts ListOptions) ([]*Member, error)

	// GetByUnit возвращает участников звена.
	GetByUnit(ctx context.Context, clubID ClubID, unitID UnitID, opts ListOptions) ([]*Member, error)

	// GetByIDs возвращает участников по списку ID.
	GetByIDs(ctx context.Context, ids []string) ([]*Member, error)

	// Exists проверяет существование участника по ID.
	Exists(ctx context.Context, id string) (bool, error)

	// Count возвращает количество участников клуба.
	Count(ctx context.Context, clubID ClubID) (int, error)

	// ClubRegion возвращает регион клуба из реестра клубов. Для
	// незарегистрированного клуба возвращает пустую строку: региональные
	// элементы программы такому клубу просто не видны.
	ClubRegion(ctx context.Context, clubID ClubID) (string, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// IDENTITY COLLABORATOR
// ══════════════════════════════════════════════════════════════════════════════

// Authorizer проверяет полномочия актора. Реализуется клиентом внешнего
// сервиса идентификации (infrastructure/external/identity).
type Authorizer interface {
	// CanReview проверяет, что актор может утверждать/отклонять ответы
	// участников указанного клуба. Самоутверждение запрещено на уровне
	// бизнес-логики и проверяется отдельно.
	CanReview(ctx context.Context, actorID string, clubID ClubID) error

	// CanAward проверяет право на прямую выдачу специализации.
	CanAward(ctx context.Context, actorID string, clubID ClubID) error

	// CanPurgeHistory проверяет право на безвозвратное удаление истории.
	CanPurgeHistory(ctx context.Context, actorID string) error
}
