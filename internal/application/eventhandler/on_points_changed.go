// Package eventhandler contains subscribers reacting to domain events.
// Handlers are best-effort: they must tolerate redelivery and events
// reconstructed from the wire without their concrete type.
package eventhandler

import (
	"context"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/ranking"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
	"github.com/clube-hub/club-progress-hub/pkg/logger"
)

// handlerTimeout bounds one asynchronous handler run.
const handlerTimeout = 5 * time.Second

// PointsChangedHandler invalidates cached rankings when a member's
// balance changes. All events carry the member as their aggregate, so
// the handler works for both local and remote (Redis) deliveries.
type PointsChangedHandler struct {
	members member.Repository
	cache   ranking.Cache
	log     *logger.Logger
}

// NewPointsChangedHandler creates the handler.
func NewPointsChangedHandler(members member.Repository, cache ranking.Cache, log *logger.Logger) *PointsChangedHandler {
	return &PointsChangedHandler{
		members: members,
		cache:   cache,
		log:     log.With(logger.Component("eventhandler")),
	}
}

// Register subscribes the handler to every balance-affecting event.
func (h *PointsChangedHandler) Register(bus shared.EventSubscriber) error {
	for _, t := range []shared.EventType{
		shared.EventPointsGranted,
		shared.EventPointsRevoked,
		shared.EventPointsAdjusted,
		shared.EventBalanceReset,
		shared.EventHistoryDeleted,
		shared.EventMemberTransferred,
	} {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle drops the ranking caches touched by the member's club and unit.
func (h *PointsChangedHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	memberID := event.AggregateID()
	m, err := h.members.GetByID(ctx, memberID)
	if err != nil {
		h.log.Warn("points change for unknown member",
			logger.MemberID(memberID), logger.Err(err))
		return err
	}

	if err := h.cache.Invalidate(ctx, m.ClubID.String(), m.UnitID.String()); err != nil {
		h.log.Error("ranking cache invalidation failed",
			logger.MemberID(memberID),
			logger.ClubID(m.ClubID.String()),
			logger.Err(err))
		return err
	}

	h.log.Debug("ranking cache invalidated",
		logger.MemberID(memberID),
		logger.ClubID(m.ClubID.String()),
		logger.F("event_type", event.EventType()))
	return nil
}
