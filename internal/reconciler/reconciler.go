package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
	"github.com/navgurukul/leave-management/internal/core/events"
	"github.com/navgurukul/leave-management/internal/leave"
)

const pageSize = 200

type UserStore interface {
	GetByID(id string) (*userDatamodel.User, error)
	List(limit, offset int) ([]*userDatamodel.User, error)
	UpdateDerivedState(id string, daysTookLeave, pendingLeaves int, role userDatamodel.Role) (bool, error)
}

type LeaveStore interface {
	GetByUserID(userID string, limit, offset int) ([]*leave.Request, error)
}

// Reconciler recomputes the derived fields on user profiles from the leave
// ledger: taken-day and pending counters plus the role flag mirror. Writes
// only happen when the stored values diverge, so running it twice in a row
// changes nothing the second time.
type Reconciler struct {
	users  UserStore
	leaves LeaveStore
	logger *slog.Logger
}

func New(users UserStore, leaves LeaveStore, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		users:  users,
		leaves: leaves,
		logger: logger,
	}
}

// ReconcileUser corrects one profile. It reports whether a correction was
// written.
func (r *Reconciler) ReconcileUser(userID string) (bool, error) {
	user, err := r.users.GetByID(userID)
	if err != nil {
		return false, fmt.Errorf("reconcile: load user %s: %w", userID, err)
	}

	daysTook, pending, err := r.tally(userID)
	if err != nil {
		return false, err
	}

	role := user.Role
	if !role.Valid() {
		role = userDatamodel.DeriveRole(user.IsAdmin, user.IsSubAdmin, user.IsSuperAdmin)
	}

	corrected, err := r.users.UpdateDerivedState(userID, daysTook, pending, role)
	if err != nil {
		return false, fmt.Errorf("reconcile: update user %s: %w", userID, err)
	}

	if corrected {
		r.logger.Info("reconciler: corrected derived state",
			"user_id", userID,
			"days_took_leave", daysTook,
			"pending_leaves", pending,
			"role", role)
	}
	return corrected, nil
}

// ReconcileAll walks every profile. Per-user failures are logged and the
// walk continues; the first error is returned at the end.
func (r *Reconciler) ReconcileAll(ctx context.Context) (int, error) {
	var firstErr error
	corrected := 0

	for offset := 0; ; offset += pageSize {
		select {
		case <-ctx.Done():
			return corrected, ctx.Err()
		default:
		}

		users, err := r.users.List(pageSize, offset)
		if err != nil {
			return corrected, fmt.Errorf("reconcile: list users: %w", err)
		}
		if len(users) == 0 {
			break
		}

		for _, u := range users {
			changed, err := r.ReconcileUser(u.ID)
			if err != nil {
				r.logger.Error("reconciler: user reconciliation failed", "error", err, "user_id", u.ID)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if changed {
				corrected++
			}
		}

		if len(users) < pageSize {
			break
		}
	}

	return corrected, firstErr
}

// tally folds the user's leave ledger into the derived counters. Approved
// requests contribute their full day span; anything still pending counts
// once.
func (r *Reconciler) tally(userID string) (daysTook, pending int, err error) {
	for offset := 0; ; offset += pageSize {
		reqs, err := r.leaves.GetByUserID(userID, pageSize, offset)
		if err != nil {
			return 0, 0, fmt.Errorf("reconcile: load leaves for %s: %w", userID, err)
		}

		for _, req := range reqs {
			if req.Status == leave.StatusApproved {
				daysTook += req.TotalDays
			}
			if req.Status.IsPending() {
				pending++
			}
		}

		if len(reqs) < pageSize {
			break
		}
	}
	return daysTook, pending, nil
}

// HandleLeaveTransitioned refreshes the applicant's counters right after a
// transition lands, so the profile does not wait for the next sweep.
func (r *Reconciler) HandleLeaveTransitioned(ctx context.Context, event events.Event) error {
	transitionEvent, ok := event.(*events.LeaveTransitionedEvent)
	if !ok {
		return fmt.Errorf("expected LeaveTransitionedEvent, got %T", event)
	}

	if _, err := r.ReconcileUser(transitionEvent.Request.UserID); err != nil {
		r.logger.Error("reconciler: event-driven reconciliation failed",
			"error", err, "user_id", transitionEvent.Request.UserID)
		return err
	}
	return nil
}

// HandleLeaveApplied keeps the pending counter current on submission.
func (r *Reconciler) HandleLeaveApplied(ctx context.Context, event events.Event) error {
	appliedEvent, ok := event.(*events.LeaveAppliedEvent)
	if !ok {
		return fmt.Errorf("expected LeaveAppliedEvent, got %T", event)
	}

	if _, err := r.ReconcileUser(appliedEvent.Request.UserID); err != nil {
		r.logger.Error("reconciler: event-driven reconciliation failed",
			"error", err, "user_id", appliedEvent.Request.UserID)
		return err
	}
	return nil
}

func (r *Reconciler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeLeaveApplied, r.HandleLeaveApplied)
	eventBus.Subscribe(events.EventTypeLeaveTransitioned, r.HandleLeaveTransitioned)

	r.logger.Info("reconciler event handlers registered",
		"handlers", []string{events.EventTypeLeaveApplied, events.EventTypeLeaveTransitioned})
}

// Run sweeps all profiles on the given interval until the context is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("reconciler sweep loop started", "interval", interval)

	for {
		select {
		case <-ticker.C:
			corrected, err := r.ReconcileAll(ctx)
			if err != nil {
				r.logger.Error("reconciler sweep finished with errors", "error", err, "corrected", corrected)
				continue
			}
			r.logger.Info("reconciler sweep complete", "corrected", corrected)
		case <-ctx.Done():
			r.logger.Info("reconciler sweep loop stopped")
			return
		}
	}
}
