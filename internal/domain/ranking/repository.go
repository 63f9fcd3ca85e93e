package ranking

import (
	"context"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/member"
)

// ══════════════════════════════════════════════════════════════════════════════
// READ-SIDE CONTRACTS
// Рейтинги читают согласованный снимок участников и журнала; записи
// выполняются другими компонентами. Допустима несвежесть в несколько секунд.
// ══════════════════════════════════════════════════════════════════════════════

// Reader загружает входные строки вычисления рейтинга.
type Reader interface {
	// MembersInScope возвращает участников уровня иерархии вместе с их
	// кешированными балансами, прочитанными в одной транзакции.
	MembersInScope(ctx context.Context, scope Scope, scopeID string) ([]MemberPoints, error)

	// MembersInScopeWindow возвращает участников уровня с очками,
	// пересуммированными из журнала по окну createdAt.
	MembersInScopeWindow(ctx context.Context, scope Scope, scopeID string, from, to time.Time) ([]MemberPoints, error)

	// GroupTotals возвращает агрегаты дочерних групп уровня
	// (клубы миссии, звенья клуба).
	GroupTotals(ctx context.Context, scope Scope, scopeID string) ([]GroupTotal, error)
}

// Cache кеширует горячие рейтинги (Redis sorted sets).
// Промах кеша - не ошибка: вычисление уходит в хранилище.
type Cache interface {
	// GetStandings возвращает кешированный рейтинг или (nil, nil) при промахе.
	GetStandings(ctx context.Context, scope Scope, scopeID string, bracket member.AgeBracket) (*Standings, error)

	// PutStandings сохраняет рейтинг с TTL.
	PutStandings(ctx context.Context, s *Standings, bracket member.AgeBracket, ttl time.Duration) error

	// Invalidate сбрасывает кешированные рейтинги, затронутые изменением
	// баланса участника.
	Invalidate(ctx context.Context, clubID, unitID string) error
}
