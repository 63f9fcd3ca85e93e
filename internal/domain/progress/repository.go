package progress

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над записями прогресса.
type Repository interface {
	// Get возвращает запись по ключу (участник, элемент).
	// Возвращает ErrProgressNotFound, если записи нет - это NOT_STARTED.
	Get(ctx context.Context, memberID, itemID string) (*Record, error)

	// GetForUpdate возвращает запись с блокировкой строки.
	// Используется внутри транзакций переходов состояния, чтобы
	// конкурирующие approve/revoke на одном ключе сериализовались.
	GetForUpdate(ctx context.Context, memberID, itemID string) (*Record, error)

	// Upsert сохраняет запись (вставка или обновление по паре ключей).
	Upsert(ctx context.Context, r *Record) error

	// GetByMemberAndItems возвращает записи участника по списку элементов.
	// Отсутствующие пары означают NOT_STARTED.
	GetByMemberAndItems(ctx context.Context, memberID string, itemIDs []string) (map[string]*Record, error)

	// GetByMember возвращает все записи участника.
	GetByMember(ctx context.Context, memberID string) ([]*Record, error)

	// Delete безвозвратно удаляет запись (только deleteHistory).
	Delete(ctx context.Context, memberID, itemID string) error
}

// CompletionRepository определяет операции над фактами завершения.
type CompletionRepository interface {
	// Get возвращает факт завершения.
	// Если факта нет, возвращает новый в состоянии IN_PROGRESS.
	Get(ctx context.Context, memberID, specialtyID string) (*Completion, error)

	// Upsert сохраняет факт завершения.
	Upsert(ctx context.Context, c *Completion) error

	// GetByMember возвращает все факты участника.
	GetByMember(ctx context.Context, memberID string) ([]*Completion, error)
}
