package events

import (
	"time"

	"github.com/google/uuid"

	leaveDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/leave"
	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
)

const (
	EventTypeLeaveApplied      = "leave.applied"
	EventTypeLeaveTransitioned = "leave.transitioned"
)

// LeaveAppliedEvent fires after a new leave request is durably persisted.
type LeaveAppliedEvent struct {
	BaseEvent
	Request leaveDatamodel.Leave `json:"request"`
}

func NewLeaveAppliedEvent(request leaveDatamodel.Leave) *LeaveAppliedEvent {
	return &LeaveAppliedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLeaveApplied,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"leave_id": request.ID,
				"user_id":  request.UserID,
				"status":   request.Status,
			},
		},
		Request: request,
	}
}

// LeaveTransitionedEvent fires after an approve or reject write lands. The
// request snapshot carries the post-transition state.
type LeaveTransitionedEvent struct {
	BaseEvent
	Request   leaveDatamodel.Leave `json:"request"`
	OldStatus string               `json:"old_status"`
	NewStatus string               `json:"new_status"`
	ActorName string               `json:"actor_name"`
	ActorRole userDatamodel.Role   `json:"actor_role"`
}

func NewLeaveTransitionedEvent(request leaveDatamodel.Leave, oldStatus, newStatus, actorName string, actorRole userDatamodel.Role) *LeaveTransitionedEvent {
	return &LeaveTransitionedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLeaveTransitioned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"leave_id":   request.ID,
				"user_id":    request.UserID,
				"old_status": oldStatus,
				"new_status": newStatus,
				"actor_role": actorRole,
			},
		},
		Request:   request,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ActorName: actorName,
		ActorRole: actorRole,
	}
}
