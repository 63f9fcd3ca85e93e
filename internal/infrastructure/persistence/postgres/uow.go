package postgres

import (
	"context"

	"github.com/clube-hub/club-progress-hub/internal/application/command"
	"github.com/clube-hub/club-progress-hub/internal/domain/ledger"
	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/progress"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// Переход состояния, запись в журнал, обновление кеша баланса и
// переключение факта завершения фиксируются одной транзакцией.
// Репозитории внутри fn привязаны к pgx.Tx через Querier.
// ══════════════════════════════════════════════════════════════════════════════

// UnitOfWork implements command.UnitOfWork over a pgx transaction.
type UnitOfWork struct {
	conn *Connection
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(conn *Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Execute runs fn inside one transaction. An error from fn rolls the
// whole transaction back.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(tx command.TxContext) error) error {
	return u.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		return fn(&txContext{tx: tx})
	})
}

// txContext exposes transaction-bound repositories.
type txContext struct {
	tx pgx.Tx
}

func (t *txContext) Members() member.Repository {
	return NewMemberRepository(t.tx)
}

func (t *txContext) Progress() progress.Repository {
	return NewProgressRepository(t.tx)
}

func (t *txContext) Completions() progress.CompletionRepository {
	return NewCompletionRepository(t.tx)
}

func (t *txContext) Ledger() ledger.Repository {
	return NewLedgerRepository(t.tx)
}

func (t *txContext) Audit() ledger.AuditRepository {
	return NewAuditRepository(t.tx)
}
