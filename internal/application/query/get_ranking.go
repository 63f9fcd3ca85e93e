// Package query contains read operations (CQRS - Queries).
// Queries never mutate state and tolerate slightly stale data.
package query

import (
	"context"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/ranking"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING QUERIES
// Рейтинг по накопленным балансам кешируется; оконные рейтинги
// пересуммируют журнал и в кеш не попадают - окна произвольные,
// а повторяемость запроса низкая.
// ══════════════════════════════════════════════════════════════════════════════

// rankingTTL ограничивает несвежесть кешированного рейтинга.
const rankingTTL = 60 * time.Second

// GetRankingHandler вычисляет рейтинги участников и групп.
type GetRankingHandler struct {
	reader ranking.Reader
	cache  ranking.Cache
}

// NewGetRankingHandler создаёт обработчик.
func NewGetRankingHandler(reader ranking.Reader, cache ranking.Cache) *GetRankingHandler {
	return &GetRankingHandler{reader: reader, cache: cache}
}

// Handle возвращает рейтинг для заданных параметров.
func (h *GetRankingHandler) Handle(ctx context.Context, params ranking.Params) (*ranking.Standings, error) {
	if !params.Scope.IsValid() {
		return nil, shared.ErrInvalidRankingScope
	}
	if params.Scope.RequiresScopeID() && params.ScopeID == "" {
		return nil, shared.ErrInvalidRankingScope
	}

	windowed := !params.Window.IsZero()

	if !windowed && h.cache != nil {
		cached, err := h.cache.GetStandings(ctx, params.Scope, params.ScopeID, params.Bracket)
		if err == nil && cached != nil {
			return cached, nil
		}
		// Ошибка кеша не фатальна: вычисление уходит в хранилище.
	}

	var rows []ranking.MemberPoints
	var err error
	if windowed {
		rows, err = h.reader.MembersInScopeWindow(ctx, params.Scope, params.ScopeID,
			params.Window.From, params.Window.To)
	} else {
		rows, err = h.reader.MembersInScope(ctx, params.Scope, params.ScopeID)
	}
	if err != nil {
		return nil, err
	}

	standings := ranking.Compute(params, rows, time.Now().UTC())

	if !windowed && h.cache != nil {
		_ = h.cache.PutStandings(ctx, standings, params.Bracket, rankingTTL)
	}
	return standings, nil
}

// Groups возвращает агрегаты дочерних групп уровня, упорядоченные по
// среднему на участника. Среднее, а не сумма: большие клубы не должны
// выигрывать только размером.
func (h *GetRankingHandler) Groups(ctx context.Context, scope ranking.Scope, scopeID string) ([]ranking.GroupTotal, error) {
	if !scope.IsValid() {
		return nil, shared.ErrInvalidRankingScope
	}
	groups, err := h.reader.GroupTotals(ctx, scope, scopeID)
	if err != nil {
		return nil, err
	}
	return ranking.CompareGroups(groups), nil
}
