package curriculum

import (
	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCOPE RESOLUTION
// Клубная версия требования затеняет глобальный оригинал для участников
// этого клуба. Разрешение - явная функция, а не конкатенация списков:
// инвариант "ровно один действующий элемент" должен быть проверяемым.
// ══════════════════════════════════════════════════════════════════════════════

// scope precedence: club > region > global
func scopeRank(s ScopeKind) int {
	switch s {
	case ScopeClub:
		return 3
	case ScopeRegion:
		return 2
	case ScopeGlobal:
		return 1
	}
	return 0
}

// ResolveEffective выбирает действующий элемент для пары
// (участник, логическое требование) из всех версий с одним LogicalID.
//
// Правила:
//   - рассматриваются только видимые участнику активные версии;
//   - клубная версия предпочитается региональной, региональная - глобальной;
//   - две видимые версии одного уровня - нарушение инварианта и ошибка,
//     а не тихий выбор первой попавшейся.
//
// Если после удаления клубной версии осталась только глобальная, она и
// становится действующей; история прогресса по удалённой версии при этом
// не переносится и не удаляется.
func ResolveEffective(versions []*Item, clubID member.ClubID, regionID string) (*Item, error) {
	var best *Item
	bestRank := 0
	ambiguous := false

	for _, it := range versions {
		if !it.VisibleTo(clubID, regionID) {
			continue
		}
		r := scopeRank(it.Scope)
		switch {
		case r > bestRank:
			best = it
			bestRank = r
			ambiguous = false
		case r == bestRank && best != nil:
			ambiguous = true
		}
	}

	if best == nil {
		return nil, shared.ErrItemNotFound
	}
	if ambiguous {
		return nil, shared.ErrAmbiguousItemScope
	}
	return best, nil
}

// ResolveEffectiveSet сводит набор версий к действующим элементам:
// ровно один на логическое требование. Версии группируются по LogicalID,
// каждая группа разрешается через ResolveEffective. Логическое
// требование без видимой участнику версии в набор не входит - оно не
// часть его программы. Порядок следования исходного списка сохраняется.
func ResolveEffectiveSet(items []*Item, clubID member.ClubID, regionID string) ([]*Item, error) {
	order := make([]string, 0, len(items))
	groups := make(map[string][]*Item, len(items))
	for _, it := range items {
		if _, seen := groups[it.LogicalID]; !seen {
			order = append(order, it.LogicalID)
		}
		groups[it.LogicalID] = append(groups[it.LogicalID], it)
	}

	effective := make([]*Item, 0, len(order))
	for _, logicalID := range order {
		it, err := ResolveEffective(groups[logicalID], clubID, regionID)
		switch {
		case err == nil:
			effective = append(effective, it)
		case shared.IsNotFound(err):
			continue
		default:
			return nil, err
		}
	}
	return effective, nil
}
