package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/navgurukul/leave-management/internal/core/events"
	"github.com/navgurukul/leave-management/internal/leave"
)

type EventHandler struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewEventHandler(dispatcher *Dispatcher, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (h *EventHandler) HandleLeaveApplied(ctx context.Context, event events.Event) error {
	appliedEvent, ok := event.(*events.LeaveAppliedEvent)
	if !ok {
		h.logger.Error("invalid event type for leave applied handler", "event_type", event.EventType())
		return fmt.Errorf("expected LeaveAppliedEvent, got %T", event)
	}

	h.logger.Info("handling leave applied event",
		"leave_id", appliedEvent.Request.ID,
		"user_id", appliedEvent.Request.UserID,
		"event_id", appliedEvent.EventID())

	h.dispatcher.NotifyApplied(ctx, *leave.FromDataModel(&appliedEvent.Request))
	return nil
}

func (h *EventHandler) HandleLeaveTransitioned(ctx context.Context, event events.Event) error {
	transitionEvent, ok := event.(*events.LeaveTransitionedEvent)
	if !ok {
		h.logger.Error("invalid event type for leave transitioned handler", "event_type", event.EventType())
		return fmt.Errorf("expected LeaveTransitionedEvent, got %T", event)
	}

	h.logger.Info("handling leave transitioned event",
		"leave_id", transitionEvent.Request.ID,
		"old_status", transitionEvent.OldStatus,
		"new_status", transitionEvent.NewStatus,
		"event_id", transitionEvent.EventID())

	h.dispatcher.NotifyTransitioned(ctx,
		*leave.FromDataModel(&transitionEvent.Request),
		leave.Status(transitionEvent.OldStatus),
		leave.Status(transitionEvent.NewStatus),
		transitionEvent.ActorName,
		transitionEvent.ActorRole,
	)
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeLeaveApplied, h.HandleLeaveApplied)
	eventBus.Subscribe(events.EventTypeLeaveTransitioned, h.HandleLeaveTransitioned)

	h.logger.Info("notification event handlers registered",
		"handlers", []string{events.EventTypeLeaveApplied, events.EventTypeLeaveTransitioned})
}
