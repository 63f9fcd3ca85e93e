package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/ranking"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING CACHE
//
// Architecture:
//   - Sorted Set "ranking:points:{scope}:{scopeID}:{bracket}" stores
//     memberID -> points for O(log N) rank lookups
//   - String "ranking:standings:{scope}:{scopeID}:{bracket}" stores the
//     full computed Standings as JSON
//
// Промах кеша - не ошибка: вычисление уходит в хранилище, результат
// кладётся обратно. Инвалидация по событиям points.* удаляет ключи
// уровней, затронутых изменением баланса участника.
// ══════════════════════════════════════════════════════════════════════════════

const (
	keyRankingPoints    = PrefixRanking + "points:"
	keyRankingStandings = PrefixRanking + "standings:"

	// bracketAll keys standings computed without a bracket filter.
	bracketAll = "all"
)

// RankingCache implements ranking.Cache over Redis sorted sets.
type RankingCache struct {
	cache *Cache
}

// NewRankingCache creates a new RankingCache.
func NewRankingCache(cache *Cache) *RankingCache {
	return &RankingCache{cache: cache}
}

func bracketKey(bracket member.AgeBracket) string {
	if bracket == "" {
		return bracketAll
	}
	return string(bracket)
}

func standingsKey(scope ranking.Scope, scopeID string, bracket member.AgeBracket) string {
	return fmt.Sprintf("%s%s:%s:%s", keyRankingStandings, scope, scopeID, bracketKey(bracket))
}

func pointsKey(scope ranking.Scope, scopeID string, bracket member.AgeBracket) string {
	return fmt.Sprintf("%s%s:%s:%s", keyRankingPoints, scope, scopeID, bracketKey(bracket))
}

// GetStandings returns cached standings or (nil, nil) on a miss.
func (r *RankingCache) GetStandings(ctx context.Context, scope ranking.Scope, scopeID string, bracket member.AgeBracket) (*ranking.Standings, error) {
	var s ranking.Standings
	err := r.cache.Get(ctx, standingsKey(scope, scopeID, bracket), &s)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// PutStandings stores computed standings with a TTL.
// The sorted set mirror enables cheap positional lookups without
// deserializing the full snapshot.
func (r *RankingCache) PutStandings(ctx context.Context, s *ranking.Standings, bracket member.AgeBracket, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = TTLRankingCache
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	sKey := standingsKey(s.Scope, s.ScopeID, bracket)
	pKey := pointsKey(s.Scope, s.ScopeID, bracket)

	zMembers := make([]redis.Z, 0, len(s.Entries))
	for _, e := range s.Entries {
		zMembers = append(zMembers, redis.Z{
			Score:  float64(e.Points),
			Member: e.MemberID,
		})
	}

	pipe := r.cache.Client().Pipeline()
	pipe.Set(ctx, sKey, data, ttl)
	pipe.Del(ctx, pKey)
	if len(zMembers) > 0 {
		pipe.ZAdd(ctx, pKey, zMembers...)
		pipe.Expire(ctx, pKey, ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Position returns a member's 1-based position in a cached ranking.
// Returns 0 on a miss.
func (r *RankingCache) Position(ctx context.Context, scope ranking.Scope, scopeID string, bracket member.AgeBracket, memberID string) (int, error) {
	rank, err := r.cache.Client().ZRevRank(ctx, pointsKey(scope, scopeID, bracket), memberID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return int(rank) + 1, nil
}

// Invalidate drops cached rankings affected by a member's balance change.
// Глобальный, клубный и звеньевой уровни удаляются точечно; union/mission
// затираются по шаблону - принадлежность клуба иерархии кешу неизвестна.
func (r *RankingCache) Invalidate(ctx context.Context, clubID, unitID string) error {
	keys := make([]string, 0, 6)
	for _, bracket := range []member.AgeBracket{"", member.BracketJunior, member.BracketSenior} {
		keys = append(keys,
			standingsKey(ranking.ScopeGlobal, "", bracket),
			pointsKey(ranking.ScopeGlobal, "", bracket),
		)
		if clubID != "" {
			keys = append(keys,
				standingsKey(ranking.ScopeClub, clubID, bracket),
				pointsKey(ranking.ScopeClub, clubID, bracket),
			)
		}
		if unitID != "" {
			keys = append(keys,
				standingsKey(ranking.ScopeUnit, unitID, bracket),
				pointsKey(ranking.ScopeUnit, unitID, bracket),
			)
		}
	}

	if err := r.cache.Delete(ctx, keys...); err != nil {
		return err
	}

	for _, scope := range []ranking.Scope{ranking.ScopeUnion, ranking.ScopeMission} {
		if err := r.cache.DeleteByPattern(ctx, PrefixRanking+"*:"+string(scope)+":*"); err != nil {
			return err
		}
	}
	return nil
}
