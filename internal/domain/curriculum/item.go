// Package curriculum содержит доменную модель учебной программы клуба:
// требования классов, специализаций и региональных событий.
// Определения поступают извне уже нормализованными (контракт Curriculum Import);
// здесь только их семантика и правила разрешения области видимости.
package curriculum

import (
	"strings"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// ItemKind представляет вид назначаемого элемента.
// Все три вида имеют общую форму {id, pointValue, answerType} и отличаются
// только привязкой к родителю, поэтому модель - один тип с тегом,
// а не три почти одинаковых сущности.
type ItemKind string

const (
	// KindClassRequirement - требование класса (основной учебной программы).
	KindClassRequirement ItemKind = "class_requirement"

	// KindSpecialtyRequirement - требование специализации.
	KindSpecialtyRequirement ItemKind = "specialty_requirement"

	// KindEventRequirement - требование регионального события (с окном времени).
	KindEventRequirement ItemKind = "event_requirement"
)

// IsValid проверяет корректность вида.
func (k ItemKind) IsValid() bool {
	switch k {
	case KindClassRequirement, KindSpecialtyRequirement, KindEventRequirement:
		return true
	}
	return false
}

// AnswerType представляет форму ответа на требование.
type AnswerType string

const (
	// AnswerNone - отметка без ответа (чекбокс).
	AnswerNone AnswerType = "none"

	// AnswerText - текстовый ответ.
	AnswerText AnswerType = "text"

	// AnswerFile - файл-подтверждение (хранится как непрозрачная ссылка).
	AnswerFile AnswerType = "file"

	// AnswerBoth - текст и файл одновременно.
	AnswerBoth AnswerType = "both"

	// AnswerQuiz - набор ответов на вопросы теста.
	AnswerQuiz AnswerType = "quiz"
)

// IsValid проверяет корректность формы ответа.
func (a AnswerType) IsValid() bool {
	switch a {
	case AnswerNone, AnswerText, AnswerFile, AnswerBoth, AnswerQuiz:
		return true
	}
	return false
}

// RequiresText возвращает true, если форма требует текстовый ответ.
func (a AnswerType) RequiresText() bool {
	return a == AnswerText || a == AnswerBoth
}

// RequiresFile возвращает true, если форма требует ссылку на файл.
// Содержимое файла не проверяется - только наличие ссылки.
func (a AnswerType) RequiresFile() bool {
	return a == AnswerFile || a == AnswerBoth
}

// RequiresQuiz возвращает true, если форма требует ответы теста.
func (a AnswerType) RequiresQuiz() bool {
	return a == AnswerQuiz
}

// ScopeKind представляет область видимости элемента.
type ScopeKind string

const (
	// ScopeGlobal - элемент виден всем.
	ScopeGlobal ScopeKind = "global"

	// ScopeClub - клубная версия, затеняет глобальный оригинал
	// для участников этого клуба.
	ScopeClub ScopeKind = "club"

	// ScopeRegion - региональная версия.
	ScopeRegion ScopeKind = "region"
)

// IsValid проверяет корректность области видимости.
func (s ScopeKind) IsValid() bool {
	switch s {
	case ScopeGlobal, ScopeClub, ScopeRegion:
		return true
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// TIME WINDOW
// ══════════════════════════════════════════════════════════════════════════════

// TimeWindow представляет окно доступности элемента.
// Нулевые границы означают отсутствие ограничения.
type TimeWindow struct {
	// StartsAt - начало окна (опционально).
	StartsAt time.Time

	// EndsAt - конец окна (опционально).
	EndsAt time.Time
}

// IsOpen возвращает true, если окно открыто в указанный момент.
func (w TimeWindow) IsOpen(at time.Time) bool {
	if !w.StartsAt.IsZero() && at.Before(w.StartsAt) {
		return false
	}
	if !w.EndsAt.IsZero() && at.After(w.EndsAt) {
		return false
	}
	return true
}

// IsBounded возвращает true, если задана хотя бы одна граница.
func (w TimeWindow) IsBounded() bool {
	return !w.StartsAt.IsZero() || !w.EndsAt.IsZero()
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Item представляет назначаемый элемент работы: одно требование
// класса, специализации или регионального события.
type Item struct {
	// ID - идентификатор конкретной строки (UUID).
	ID string

	// LogicalID - идентификатор логического требования.
	// Клубная версия и глобальный оригинал разделяют один LogicalID;
	// разрешение области видимости выбирает ровно одну строку на пару
	// (участник, логическое требование).
	LogicalID string

	// Kind - вид элемента.
	Kind ItemKind

	// ParentID - родитель в зависимости от вида: класс, специализация
	// или региональное событие.
	ParentID string

	// Name - название требования.
	Name string

	// PointValue - очки за утверждённое выполнение.
	PointValue int

	// AnswerType - форма ответа.
	AnswerType AnswerType

	// Window - окно доступности (в основном для событий).
	Window TimeWindow

	// Scope - область видимости.
	Scope ScopeKind

	// ScopeID - идентификатор клуба или региона для неглобальных областей.
	ScopeID string

	// Active - false для удалённых клубных версий: они перестают
	// участвовать в разрешении, но история прогресса по ним сохраняется.
	Active bool

	// CreatedAt - время создания.
	CreatedAt time.Time
}

// Validate проверяет инварианты элемента.
func (i *Item) Validate() error {
	if strings.TrimSpace(i.ID) == "" || strings.TrimSpace(i.LogicalID) == "" {
		return shared.ErrInvalidID
	}
	if !i.Kind.IsValid() {
		return shared.ErrInvalidInput
	}
	if !i.AnswerType.IsValid() {
		return shared.ErrInvalidInput
	}
	if !i.Scope.IsValid() {
		return shared.ErrInvalidInput
	}
	if i.Scope != ScopeGlobal && strings.TrimSpace(i.ScopeID) == "" {
		return shared.ErrEmptyValue
	}
	if i.PointValue < 0 {
		return shared.ErrInvalidPointValue
	}
	return nil
}

// VisibleTo возвращает true, если элемент виден участнику.
func (i *Item) VisibleTo(clubID member.ClubID, regionID string) bool {
	if !i.Active {
		return false
	}
	switch i.Scope {
	case ScopeGlobal:
		return true
	case ScopeClub:
		return i.ScopeID == clubID.String()
	case ScopeRegion:
		return i.ScopeID == regionID
	}
	return false
}

// SubmittableAt возвращает true, если в указанный момент по элементу
// можно подавать ответы.
func (i *Item) SubmittableAt(at time.Time) bool {
	return i.Active && i.Window.IsOpen(at)
}
