package query

import (
	"context"

	"github.com/clube-hub/club-progress-hub/internal/domain/progress"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION QUERIES
// Внешние потребители (выдача сертификатов) спрашивают только факт:
// завершена специализация или нет.
// ══════════════════════════════════════════════════════════════════════════════

// GetCompletionHandler возвращает факты завершения специализаций.
type GetCompletionHandler struct {
	completions progress.CompletionRepository
}

// NewGetCompletionHandler создаёт обработчик.
func NewGetCompletionHandler(completions progress.CompletionRepository) *GetCompletionHandler {
	return &GetCompletionHandler{completions: completions}
}

// IsComplete возвращает true, если специализация завершена участником.
func (h *GetCompletionHandler) IsComplete(ctx context.Context, memberID, specialtyID string) (bool, error) {
	if memberID == "" || specialtyID == "" {
		return false, shared.ErrInvalidID
	}
	c, err := h.completions.Get(ctx, memberID, specialtyID)
	if err != nil {
		return false, err
	}
	return c.Status == progress.CompletionCompleted, nil
}

// Get возвращает полный факт завершения.
func (h *GetCompletionHandler) Get(ctx context.Context, memberID, specialtyID string) (*progress.Completion, error) {
	if memberID == "" || specialtyID == "" {
		return nil, shared.ErrInvalidID
	}
	return h.completions.Get(ctx, memberID, specialtyID)
}

// ListByMember возвращает все факты участника.
func (h *GetCompletionHandler) ListByMember(ctx context.Context, memberID string) ([]*progress.Completion, error) {
	if memberID == "" {
		return nil, shared.ErrInvalidID
	}
	return h.completions.GetByMember(ctx, memberID)
}
