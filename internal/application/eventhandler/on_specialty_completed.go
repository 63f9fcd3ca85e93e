package eventhandler

import (
	"context"

	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
	"github.com/clube-hub/club-progress-hub/pkg/logger"
)

// Notifier delivers completion notices to members and their counselors.
// Implementations live in infrastructure (Telegram, e-mail); the log
// notifier below is the default for deployments without a channel.
type Notifier interface {
	// NotifySpecialtyCompleted announces a completed specialty.
	NotifySpecialtyCompleted(ctx context.Context, memberID, specialtyID string, direct bool) error

	// NotifySpecialtyReverted announces that a completion was rolled back.
	NotifySpecialtyReverted(ctx context.Context, memberID, specialtyID string) error
}

// SpecialtyCompletedHandler fans completion events out to the notifier.
type SpecialtyCompletedHandler struct {
	notifier Notifier
	log      *logger.Logger
}

// NewSpecialtyCompletedHandler creates the handler.
func NewSpecialtyCompletedHandler(notifier Notifier, log *logger.Logger) *SpecialtyCompletedHandler {
	return &SpecialtyCompletedHandler{
		notifier: notifier,
		log:      log.With(logger.Component("eventhandler")),
	}
}

// Register subscribes the handler to completion events.
func (h *SpecialtyCompletedHandler) Register(bus shared.EventSubscriber) error {
	for _, t := range []shared.EventType{
		shared.EventSpecialtyCompleted,
		shared.EventSpecialtyAwarded,
		shared.EventSpecialtyReverted,
	} {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle dispatches one completion event. Notification failures are
// logged and swallowed: a missed notice must never fail the approval
// that produced it.
func (h *SpecialtyCompletedHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	memberID := event.AggregateID()
	payload := event.Payload()
	specialtyID, _ := payload["specialty_id"].(string)

	var err error
	switch event.EventType() {
	case shared.EventSpecialtyReverted:
		err = h.notifier.NotifySpecialtyReverted(ctx, memberID, specialtyID)
	case shared.EventSpecialtyAwarded:
		err = h.notifier.NotifySpecialtyCompleted(ctx, memberID, specialtyID, true)
	default:
		err = h.notifier.NotifySpecialtyCompleted(ctx, memberID, specialtyID, false)
	}
	if err != nil {
		h.log.Warn("completion notification failed",
			logger.MemberID(memberID),
			logger.SpecialtyID(specialtyID),
			logger.Err(err))
	}
	return nil
}

// LogNotifier writes completion notices to the structured log.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(logger.Component("notifier"))}
}

// NotifySpecialtyCompleted implements Notifier.
func (n *LogNotifier) NotifySpecialtyCompleted(_ context.Context, memberID, specialtyID string, direct bool) error {
	n.log.Info("specialty completed",
		logger.MemberID(memberID),
		logger.SpecialtyID(specialtyID),
		logger.Bool("direct_award", direct))
	return nil
}

// NotifySpecialtyReverted implements Notifier.
func (n *LogNotifier) NotifySpecialtyReverted(_ context.Context, memberID, specialtyID string) error {
	n.log.Info("specialty completion reverted",
		logger.MemberID(memberID),
		logger.SpecialtyID(specialtyID))
	return nil
}
