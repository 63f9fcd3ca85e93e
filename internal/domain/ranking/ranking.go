// Package ranking содержит доменную модель рейтингов: индивидуальных,
// по звеньям, клубам и регионам. Рейтинг - чистое вычисление над
// участниками и журналом очков; никакого собственного состояния.
package ranking

import (
	"sort"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/member"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCOPE
// ══════════════════════════════════════════════════════════════════════════════

// Scope представляет уровень иерархии для рейтинга.
type Scope string

const (
	// ScopeGlobal - все клубы.
	ScopeGlobal Scope = "global"

	// ScopeUnion - объединение (униона).
	ScopeUnion Scope = "union"

	// ScopeMission - миссия (региональное подразделение объединения).
	ScopeMission Scope = "mission"

	// ScopeClub - один клуб.
	ScopeClub Scope = "club"

	// ScopeUnit - звено внутри клуба.
	ScopeUnit Scope = "unit"
)

// IsValid проверяет корректность уровня.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeGlobal, ScopeUnion, ScopeMission, ScopeClub, ScopeUnit:
		return true
	}
	return false
}

// RequiresScopeID возвращает true, если уровню нужен идентификатор.
func (s Scope) RequiresScopeID() bool {
	return s != ScopeGlobal
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY PARAMETERS
// ══════════════════════════════════════════════════════════════════════════════

// Window представляет временное окно рейтинга.
// Для оконных рейтингов очки пересуммируются из журнала по createdAt,
// а не берутся из кешированного баланса.
type Window struct {
	// From - начало окна (нулевое = без ограничения).
	From time.Time

	// To - конец окна (нулевое = без ограничения).
	To time.Time
}

// IsZero возвращает true, если окно не задано.
func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Params задаёт параметры вычисления рейтинга.
type Params struct {
	// Scope - уровень иерархии.
	Scope Scope

	// ScopeID - идентификатор клуба/звена/миссии/объединения.
	ScopeID string

	// Bracket - возрастная группа (пустая = обе).
	Bracket member.AgeBracket

	// Window - временное окно (нулевое = накопленный баланс).
	Window Window

	// Limit - максимум строк результата (0 = все).
	Limit int
}

// ══════════════════════════════════════════════════════════════════════════════
// RESULTS
// ══════════════════════════════════════════════════════════════════════════════

// Entry представляет одну строку рейтинга.
type Entry struct {
	// Position - позиция, начиная с 1.
	Position int

	// MemberID - участник.
	MemberID string

	// DisplayName - имя для отображения.
	DisplayName string

	// ClubID - клуб участника.
	ClubID string

	// UnitID - звено участника.
	UnitID string

	// Bracket - возрастная группа.
	Bracket member.AgeBracket

	// Points - очки в рамках запрошенного окна.
	Points int

	// Contribution - доля участника в сумме очков группы, от 0 до 1.
	// 0, если сумма очков группы равна нулю.
	Contribution float64
}

// Standings представляет вычисленный рейтинг группы.
type Standings struct {
	// Scope и ScopeID - запрошенный уровень.
	Scope   Scope
	ScopeID string

	// Entries - строки рейтинга по убыванию очков.
	Entries []Entry

	// TotalPoints - сумма очков всех учтённых участников.
	TotalPoints int

	// EligibleCount - число учтённых участников.
	EligibleCount int

	// Average - среднее на участника. 0 при пустой группе,
	// а не ошибка деления.
	Average float64

	// ComputedAt - момент вычисления.
	ComputedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPUTATION
// ══════════════════════════════════════════════════════════════════════════════

// MemberPoints - входная строка вычисления: участник и его очки
// (кешированный баланс или пересуммированное окно).
type MemberPoints struct {
	Member *member.Member
	Points int
}

// Compute строит рейтинг из строк участников.
// Правила:
//   - учитываются только активные участники с ролью следопыта
//     (взрослые роли не входят в командные средние);
//   - фильтр возрастной группы применяется, если задан;
//   - сортировка по убыванию очков, при равенстве - по имени,
//     затем по ID (стабильный детерминированный порядок);
//   - среднее и доли защищены от деления на ноль.
func Compute(params Params, rows []MemberPoints, now time.Time) *Standings {
	eligible := make([]MemberPoints, 0, len(rows))
	for _, row := range rows {
		if row.Member == nil || !row.Member.CountsTowardRankings() {
			continue
		}
		if params.Bracket != "" && row.Member.Bracket() != params.Bracket {
			continue
		}
		eligible = append(eligible, row)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Points != eligible[j].Points {
			return eligible[i].Points > eligible[j].Points
		}
		if eligible[i].Member.DisplayName != eligible[j].Member.DisplayName {
			return eligible[i].Member.DisplayName < eligible[j].Member.DisplayName
		}
		return eligible[i].Member.ID < eligible[j].Member.ID
	})

	total := 0
	for _, row := range eligible {
		total += row.Points
	}

	standings := &Standings{
		Scope:         params.Scope,
		ScopeID:       params.ScopeID,
		Entries:       make([]Entry, 0, len(eligible)),
		TotalPoints:   total,
		EligibleCount: len(eligible),
		ComputedAt:    now,
	}

	if len(eligible) > 0 {
		standings.Average = float64(total) / float64(len(eligible))
	}

	for i, row := range eligible {
		if params.Limit > 0 && i >= params.Limit {
			break
		}
		contribution := 0.0
		if total != 0 {
			contribution = float64(row.Points) / float64(total)
		}
		standings.Entries = append(standings.Entries, Entry{
			Position:     i + 1,
			MemberID:     row.Member.ID,
			DisplayName:  row.Member.DisplayName,
			ClubID:       row.Member.ClubID.String(),
			UnitID:       row.Member.UnitID.String(),
			Bracket:      row.Member.Bracket(),
			Points:       row.Points,
			Contribution: contribution,
		})
	}

	return standings
}

// ══════════════════════════════════════════════════════════════════════════════
// GROUP AGGREGATES
// ══════════════════════════════════════════════════════════════════════════════

// GroupTotal представляет агрегат по группе (клубу или звену)
// для межгрупповых рейтингов.
type GroupTotal struct {
	// GroupID - клуб или звено.
	GroupID string

	// TotalPoints - сумма очков учтённых участников.
	TotalPoints int

	// EligibleCount - число учтённых участников.
	EligibleCount int

	// Average - среднее на участника (0 при пустой группе).
	Average float64
}

// CompareGroups сортирует агрегаты групп по среднему, затем по сумме,
// затем по ID группы.
func CompareGroups(groups []GroupTotal) []GroupTotal {
	out := make([]GroupTotal, len(groups))
	copy(out, groups)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Average != out[j].Average {
			return out[i].Average > out[j].Average
		}
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].GroupID < out[j].GroupID
	})
	return out
}
