package query

import (
	"context"

	"github.com/clube-hub/club-progress-hub/internal/domain/curriculum"
	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/progress"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS QUERIES
// Отсутствие записи - легальное состояние NOT_STARTED, а не ошибка.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressView - состояние участника по одному элементу.
type ProgressView struct {
	// MemberID и ItemID - ключ.
	MemberID string
	ItemID   string

	// Status - состояние; NOT_STARTED для отсутствующей записи.
	Status progress.Status

	// Record - запись, nil для NOT_STARTED.
	Record *progress.Record
}

// GetProgressHandler возвращает записи прогресса.
type GetProgressHandler struct {
	progressRepo   progress.Repository
	curriculumRepo curriculum.Repository
	memberRepo     member.Repository
}

// NewGetProgressHandler создаёт обработчик.
func NewGetProgressHandler(
	progressRepo progress.Repository,
	curriculumRepo curriculum.Repository,
	memberRepo member.Repository,
) *GetProgressHandler {
	return &GetProgressHandler{
		progressRepo:   progressRepo,
		curriculumRepo: curriculumRepo,
		memberRepo:     memberRepo,
	}
}

// Get возвращает состояние участника по элементу.
func (h *GetProgressHandler) Get(ctx context.Context, memberID, itemID string) (*ProgressView, error) {
	if memberID == "" || itemID == "" {
		return nil, shared.ErrInvalidID
	}

	rec, err := h.progressRepo.Get(ctx, memberID, itemID)
	switch {
	case err == nil:
		return &ProgressView{
			MemberID: memberID,
			ItemID:   itemID,
			Status:   rec.Status,
			Record:   rec,
		}, nil
	case shared.IsNotFound(err):
		return &ProgressView{
			MemberID: memberID,
			ItemID:   itemID,
			Status:   progress.StatusNotStarted,
		}, nil
	default:
		return nil, err
	}
}

// Resolve возвращает действующий элемент логического требования для
// участника: клубная версия затеняет региональную, региональная -
// глобальную.
func (h *GetProgressHandler) Resolve(ctx context.Context, logicalID, memberID, regionID string) (*curriculum.Item, error) {
	m, err := h.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return h.curriculumRepo.ResolveForMember(ctx, logicalID, m.ClubID, regionID)
}

// ListByMember возвращает все записи прогресса участника.
func (h *GetProgressHandler) ListByMember(ctx context.Context, memberID string) ([]*progress.Record, error) {
	if memberID == "" {
		return nil, shared.ErrInvalidID
	}
	return h.progressRepo.GetByMember(ctx, memberID)
}
