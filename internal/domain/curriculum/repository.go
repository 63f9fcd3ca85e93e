package curriculum

import (
	"context"

	"github.com/clube-hub/club-progress-hub/internal/domain/member"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции чтения учебной программы.
// Запись выполняет внешний импорт (контракт Curriculum Import);
// ядро только читает уже нормализованные определения.
type Repository interface {
	// GetItem возвращает элемент по ID строки.
	// Возвращает ErrItemNotFound, если элемент не найден.
	GetItem(ctx context.Context, id string) (*Item, error)

	// GetVersions возвращает все версии логического требования
	// (глобальную, региональные и клубные), включая неактивные.
	GetVersions(ctx context.Context, logicalID string) ([]*Item, error)

	// ResolveForMember возвращает действующий элемент логического
	// требования для участника (разрешение области видимости).
	ResolveForMember(ctx context.Context, logicalID string, clubID member.ClubID, regionID string) (*Item, error)

	// GetItemsByParent возвращает активные элементы родителя (класса,
	// специализации, события), видимые указанному клубу. Затенение
	// версий не разрешается: клубный форк и его глобальный оригинал
	// возвращаются оба, действующий набор выбирает ResolveEffectiveSet.
	GetItemsByParent(ctx context.Context, parentID string, clubID member.ClubID, regionID string) ([]*Item, error)

	// GetSpecialty возвращает родительскую сущность по ID.
	// Возвращает ErrSpecialtyNotFound, если сущность не найдена.
	GetSpecialty(ctx context.Context, id string) (*Specialty, error)

	// DeactivateItem помечает клубную версию неактивной.
	// История прогресса по версии сохраняется; разрешение возвращается
	// к глобальному оригиналу.
	DeactivateItem(ctx context.Context, id string) error
}

// AssignmentRepository определяет операции записи на специализации.
type AssignmentRepository interface {
	// Assign записывает участника на специализацию.
	Assign(ctx context.Context, a *Assignment) error

	// IsAssigned проверяет запись участника на специализацию.
	IsAssigned(ctx context.Context, memberID, specialtyID string) (bool, error)

	// GetAssignments возвращает специализации участника.
	GetAssignments(ctx context.Context, memberID string) ([]*Assignment, error)
}
