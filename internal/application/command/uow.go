// Package command contains write operations (CQRS - Commands).
// Each command is a self-contained use case with its own request/result types.
package command

import (
	"context"

	"github.com/clube-hub/club-progress-hub/internal/domain/ledger"
	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// Переход состояния, запись в журнал очков, обновление кеша баланса и
// переключение факта завершения - одна атомарная единица. Частичное
// применение (очки начислены, завершение не отмечено) - главный риск
// корректности, поэтому обработчики команд получают репозитории,
// привязанные к одной транзакции хранилища.
// ══════════════════════════════════════════════════════════════════════════════

// TxContext предоставляет репозитории, привязанные к текущей транзакции.
type TxContext interface {
	// Members - участники.
	Members() member.Repository

	// Progress - записи прогресса.
	Progress() progress.Repository

	// Completions - факты завершения специализаций.
	Completions() progress.CompletionRepository

	// Ledger - журнал очков.
	Ledger() ledger.Repository

	// Audit - журнал административных действий.
	Audit() ledger.AuditRepository
}

// UnitOfWork исполняет функцию в одной транзакции хранилища.
// Реализация находится в infrastructure/persistence/postgres.
type UnitOfWork interface {
	// Execute открывает транзакцию, вызывает fn и фиксирует изменения.
	// Ошибка fn откатывает транзакцию целиком.
	Execute(ctx context.Context, fn func(tx TxContext) error) error
}
