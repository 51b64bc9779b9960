package leave

import (
	"context"
	"log/slog"
	"strings"
	"time"

	leaveDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/leave"
	"github.com/navgurukul/leave-management/internal/core/events"
)

// Rejection carries the metadata recorded on a rejected request.
type Rejection struct {
	Reason  string
	ByRole  string
	ByEmail string
	At      time.Time
}

// Repository defines the data access methods for leave requests. The two
// transition writes are conditional on the previously observed status so a
// lost race surfaces as a conflict instead of silently clobbering history.
type Repository interface {
	Create(req *Request) error
	GetByID(id string) (*Request, error)
	GetByUserID(userID string, limit, offset int) ([]*Request, error)
	GetAll(limit, offset int) ([]*Request, error)
	AdvanceStatus(id string, from, to Status, history leaveDatamodel.HistoryLog) (bool, error)
	MarkRejected(id string, from Status, rejection Rejection, history leaveDatamodel.HistoryLog) (bool, error)
}

// Publisher is the slice of the event bus the service needs.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service owns the approval state machine: status transitions, per-stage
// authorization, and the event fan-out that drives notifications.
type Service struct {
	repo   Repository
	bus    Publisher
	logger *slog.Logger
}

func NewService(repo Repository, bus Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

// Apply creates a new request in PENDING_ADMIN for the applicant. The
// persisted write is durable before the applied event is published; the
// notification fan-out never affects the outcome.
func (s *Service) Apply(applicant Actor, dto ApplyDTO) (*Request, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("leave application validation failed", "error", err, "user_id", applicant.ID)
		return nil, err
	}

	req := NewRequest(applicant, dto, time.Now())

	if err := s.repo.Create(req); err != nil {
		s.logger.Error("failed to create leave request", "error", err, "user_id", applicant.ID)
		return nil, err
	}

	s.logger.Info("leave request created",
		"leave_id", req.ID,
		"user_id", applicant.ID,
		"total_days", req.TotalDays,
		"status", req.Status)

	s.publish(events.NewLeaveAppliedEvent(*ToDataModel(req)))

	return req, nil
}

// GetByID retrieves a request; applicants see only their own, approvers see
// everything.
func (s *Service) GetByID(id string, actor Actor) (*Request, error) {
	req, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get leave request", "error", err, "leave_id", id)
		return nil, ErrLeaveNotFound
	}

	if !actor.IsApprover() && req.UserID != actor.ID {
		s.logger.Warn("unauthorized access to leave request",
			"leave_id", id, "actor_id", actor.ID, "owner_id", req.UserID)
		return nil, ErrUnauthorizedAccess
	}

	return req, nil
}

// ListForUser returns the actor's own requests, newest first.
func (s *Service) ListForUser(userID string, limit, offset int) ([]*Request, error) {
	reqs, err := s.repo.GetByUserID(userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list user leave requests", "error", err, "user_id", userID)
		return nil, err
	}
	return reqs, nil
}

// ListAll returns every request for approver dashboards.
func (s *Service) ListAll(actor Actor, limit, offset int) ([]*Request, error) {
	if !actor.IsApprover() {
		s.logger.Warn("list all leaves denied", "actor_id", actor.ID, "role", actor.Role)
		return nil, ErrUnauthorizedAccess
	}

	reqs, err := s.repo.GetAll(limit, offset)
	if err != nil {
		s.logger.Error("failed to list leave requests", "error", err)
		return nil, err
	}
	return reqs, nil
}

// Approve advances the request exactly one stage. The actor's role must
// match the stage implied by the current status; anything else is refused
// without mutating the request.
func (s *Service) Approve(id string, actor Actor) (*Request, error) {
	req, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("leave request not found for approval", "error", err, "leave_id", id)
		return nil, ErrLeaveNotFound
	}

	if req.Status.IsTerminal() {
		s.logger.Warn("cannot approve finalized leave request",
			"leave_id", id, "status", req.Status)
		return nil, ErrTerminalStatus
	}

	stageRole, ok := StageRole(req.Status)
	if !ok || actor.Role != stageRole {
		s.logger.Warn("approve denied: actor role does not match stage",
			"leave_id", id,
			"status", req.Status,
			"actor_role", actor.Role,
			"stage_role", stageRole)
		return nil, ErrWrongStage
	}

	oldStatus := req.Status
	nextStatus, _ := NextStatus(req.Status)

	now := time.Now()
	history := append(req.History, leaveDatamodel.HistoryEntry{
		Action: ActionApproved,
		User:   actor.Name,
		Role:   actor.Role,
		Date:   now,
	})

	updated, err := s.repo.AdvanceStatus(id, oldStatus, nextStatus, history)
	if err != nil {
		s.logger.Error("failed to advance leave status", "error", err, "leave_id", id)
		return nil, err
	}
	if !updated {
		s.logger.Warn("approve lost a concurrent transition",
			"leave_id", id, "expected_status", oldStatus)
		return nil, ErrStatusConflict
	}

	req.Status = nextStatus
	req.History = history
	req.UpdatedAt = now

	s.logger.Info("leave request approved",
		"leave_id", id,
		"actor", actor.Name,
		"actor_role", actor.Role,
		"old_status", oldStatus,
		"new_status", nextStatus)

	s.publish(events.NewLeaveTransitionedEvent(
		*ToDataModel(req), string(oldStatus), string(nextStatus), actor.Name, actor.Role))

	return req, nil
}

// Reject finalizes the request as REJECTED from any pending status. Only
// approver roles may reject; the reason must already have passed the
// boundary validation and is re-checked here as a last line.
func (s *Service) Reject(id string, actor Actor, reason string) (*Request, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	if !actor.IsApprover() {
		s.logger.Warn("reject denied: actor is not an approver",
			"leave_id", id, "actor_role", actor.Role)
		return nil, ErrUnauthorizedAccess
	}

	req, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("leave request not found for rejection", "error", err, "leave_id", id)
		return nil, ErrLeaveNotFound
	}

	if req.Status.IsTerminal() {
		s.logger.Warn("cannot reject finalized leave request",
			"leave_id", id, "status", req.Status)
		return nil, ErrTerminalStatus
	}

	oldStatus := req.Status
	now := time.Now()
	history := append(req.History, leaveDatamodel.HistoryEntry{
		Action: ActionRejected,
		User:   actor.Name,
		Role:   actor.Role,
		Date:   now,
	})

	rejection := Rejection{
		Reason:  reason,
		ByRole:  string(actor.Role),
		ByEmail: actor.Email,
		At:      now,
	}

	updated, err := s.repo.MarkRejected(id, oldStatus, rejection, history)
	if err != nil {
		s.logger.Error("failed to mark leave rejected", "error", err, "leave_id", id)
		return nil, err
	}
	if !updated {
		s.logger.Warn("reject lost a concurrent transition",
			"leave_id", id, "expected_status", oldStatus)
		return nil, ErrStatusConflict
	}

	req.Status = StatusRejected
	req.History = history
	req.RejectionReason = reason
	req.RejectedByRole = actor.Role
	req.RejectedByEmail = actor.Email
	req.RejectionDateTime = &now
	req.UpdatedAt = now

	s.logger.Info("leave request rejected",
		"leave_id", id,
		"actor", actor.Name,
		"actor_role", actor.Role,
		"reason", reason)

	s.publish(events.NewLeaveTransitionedEvent(
		*ToDataModel(req), string(oldStatus), string(StatusRejected), actor.Name, actor.Role))

	return req, nil
}

// publish hands an event to the bus. The bus runs handlers asynchronously
// and swallows their errors, so a transition is committed regardless of
// what notification delivery does with it.
func (s *Service) publish(event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(context.Background(), event); err != nil {
		s.logger.Error("failed to publish leave event",
			"event_type", event.EventType(), "error", err)
	}
}
