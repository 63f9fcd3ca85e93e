// Package progress содержит доменную модель прогресса участника:
// записи о выполнении требований и машину состояний утверждения.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package progress

import (
	"strings"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/curriculum"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS (машина состояний)
//
//	NOT_STARTED → PENDING → {APPROVED, REJECTED}
//	REJECTED → PENDING    (повторная подача)
//	APPROVED → PENDING    (только явный отзыв, привилегированная операция)
// ══════════════════════════════════════════════════════════════════════════════

// Status представляет состояние записи прогресса.
type Status string

const (
	// StatusNotStarted - участник ещё не подавал ответ.
	// Такие записи не хранятся: отсутствие строки и есть NOT_STARTED.
	StatusNotStarted Status = "not_started"

	// StatusPending - ответ подан и ждёт проверки.
	StatusPending Status = "pending"

	// StatusApproved - ответ утверждён, очки начислены.
	StatusApproved Status = "approved"

	// StatusRejected - ответ отклонён с указанием причины.
	StatusRejected Status = "rejected"
)

// IsValid проверяет корректность состояния.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CanSubmit возвращает true, если из состояния можно подавать ответ.
// Утверждённые ответы заморожены до явного отзыва.
func (s Status) CanSubmit() bool {
	return s == StatusNotStarted || s == StatusPending || s == StatusRejected
}

// ══════════════════════════════════════════════════════════════════════════════
// ANSWER PAYLOAD
// ══════════════════════════════════════════════════════════════════════════════

// Answer представляет ответ участника на требование.
type Answer struct {
	// Text - текстовый ответ.
	Text string

	// FileRef - непрозрачная ссылка на файл во внешнем хранилище.
	// Ядро проверяет только наличие ссылки, не содержимое.
	FileRef string

	// Quiz - ответы теста: идентификатор вопроса → выбранный вариант.
	Quiz map[string]string
}

// IsZero возвращает true для пустого ответа.
func (a Answer) IsZero() bool {
	return strings.TrimSpace(a.Text) == "" && strings.TrimSpace(a.FileRef) == "" && len(a.Quiz) == 0
}

// MatchesType проверяет соответствие ответа форме требования.
func (a Answer) MatchesType(t curriculum.AnswerType) bool {
	if t.RequiresText() && strings.TrimSpace(a.Text) == "" {
		return false
	}
	if t.RequiresFile() && strings.TrimSpace(a.FileRef) == "" {
		return false
	}
	if t.RequiresQuiz() && len(a.Quiz) == 0 {
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Record представляет прогресс участника по одному элементу.
// Пара (MemberID, ItemID) уникальна: ровно одна запись на действующий элемент.
type Record struct {
	// MemberID - участник.
	MemberID string

	// ItemID - элемент (конкретная строка после разрешения области видимости).
	ItemID string

	// Status - текущее состояние.
	Status Status

	// Answer - последний поданный ответ.
	Answer Answer

	// RejectionReason - причина отклонения. Заполняется только в REJECTED.
	RejectionReason string

	// ReviewedBy - кто провёл последнюю проверку.
	ReviewedBy string

	// ReviewedAt - время последней проверки.
	ReviewedAt time.Time

	// SubmittedAt - время последней подачи.
	SubmittedAt time.Time

	// Version - счётчик изменений для оптимистической блокировки.
	Version int
}

// NewRecord создаёт запись в состоянии PENDING с поданным ответом.
func NewRecord(memberID, itemID string, answer Answer, now time.Time) *Record {
	return &Record{
		MemberID:    memberID,
		ItemID:      itemID,
		Status:      StatusPending,
		Answer:      answer,
		SubmittedAt: now,
		Version:     1,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Transitions
// ─────────────────────────────────────────────────────────────────────────────

// Submit подаёт (или повторно подаёт) ответ.
// Повторная подача по REJECTED затирает прежний ответ и причину отклонения:
// отклонённая запись остаётся изменяемой до утверждения.
func (r *Record) Submit(answer Answer, now time.Time) error {
	if r.Status == StatusApproved {
		return shared.ErrAlreadyApproved
	}
	r.Status = StatusPending
	r.Answer = answer
	r.RejectionReason = ""
	r.SubmittedAt = now
	r.Version++
	return nil
}

// Approve утверждает запись. Легально только из PENDING.
// Начисление очков выполняет вызывающий код в той же транзакции.
func (r *Record) Approve(reviewerID string, now time.Time) error {
	if r.Status != StatusPending {
		return shared.ErrNotPending
	}
	if reviewerID == r.MemberID {
		return shared.ErrSelfReview
	}
	r.Status = StatusApproved
	r.ReviewedBy = reviewerID
	r.ReviewedAt = now
	r.RejectionReason = ""
	r.Version++
	return nil
}

// Reject отклоняет запись с причиной. Легально только из PENDING.
// Журнал очков не затрагивается: очки за эту попытку не начислялись.
func (r *Record) Reject(reviewerID, reason string, now time.Time) error {
	if r.Status != StatusPending {
		return shared.ErrNotPending
	}
	if reviewerID == r.MemberID {
		return shared.ErrSelfReview
	}
	if strings.TrimSpace(reason) == "" {
		return shared.ErrRejectionReason
	}
	r.Status = StatusRejected
	r.ReviewedBy = reviewerID
	r.ReviewedAt = now
	r.RejectionReason = reason
	r.Version++
	return nil
}

// Revoke отзывает утверждение, возвращая запись в PENDING.
// Легально только из APPROVED. Обратная запись в журнале очков
// выполняется вызывающим кодом в той же транзакции.
func (r *Record) Revoke(reviewerID string, now time.Time) error {
	if r.Status != StatusApproved {
		return shared.ErrNotApproved
	}
	r.Status = StatusPending
	r.ReviewedBy = reviewerID
	r.ReviewedAt = now
	r.Version++
	return nil
}

// IsApproved возвращает true для утверждённых записей.
func (r *Record) IsApproved() bool {
	return r.Status == StatusApproved
}
