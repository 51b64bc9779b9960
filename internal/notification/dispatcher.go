package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
	"github.com/navgurukul/leave-management/internal/leave"
	"github.com/navgurukul/leave-management/internal/mailer"
)

// UserDirectory resolves role groups to concrete recipients.
type UserDirectory interface {
	ListByRoles(roles []userDatamodel.Role) ([]*userDatamodel.User, error)
}

// Sender queues a composed message for delivery.
type Sender interface {
	Send(msg mailer.Message)
}

// ComposerAPI produces email copy with a guaranteed fallback.
type ComposerAPI interface {
	Compose(ctx context.Context, prompt, fallback string) string
}

// Dispatcher routes leave lifecycle notifications to the audience that has
// to act next. Delivery is fire-and-forget: routing failures are logged and
// never block or undo the transition that caused them.
type Dispatcher struct {
	directory UserDirectory
	sender    Sender
	composer  ComposerAPI
	logger    *slog.Logger
}

func NewDispatcher(directory UserDirectory, sender Sender, composer ComposerAPI, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		directory: directory,
		sender:    sender,
		composer:  composer,
		logger:    logger,
	}
}

// NotifyApplied tells every admin a new request is waiting on them.
func (d *Dispatcher) NotifyApplied(ctx context.Context, req leave.Request) {
	recipients := d.emailsForRoles(userDatamodel.RoleAdmin)
	if len(recipients) == 0 {
		d.logger.Warn("notification skipped: no admin recipients", "leave_id", req.ID)
		return
	}

	subject := fmt.Sprintf("New Leave Application from %s", req.StudentName)
	fallback := fmt.Sprintf(
		"%s has applied for leave from %s to %s (%d days).\n\nReason: %s\n\nPlease review the request in the leave portal.",
		req.StudentName, req.StartDate, req.EndDate, req.TotalDays, req.Reason)
	prompt := fmt.Sprintf(
		"Write a short, professional email notifying an administrator that student %s applied for leave from %s to %s for this reason: %s",
		req.StudentName, req.StartDate, req.EndDate, req.Reason)

	d.send(ctx, recipients, subject, prompt, fallback, req.ID)
}

// NotifyTransitioned routes a status change to whoever acts at the new
// stage, or to the applicant plus every approver tier when the request
// reaches a terminal status.
func (d *Dispatcher) NotifyTransitioned(ctx context.Context, req leave.Request, oldStatus, newStatus leave.Status, actorName string, actorRole userDatamodel.Role) {
	var (
		recipients []string
		subject    string
		fallback   string
		prompt     string
	)

	switch newStatus {
	case leave.StatusPendingSubAdmin:
		recipients = d.emailsForRoles(userDatamodel.RoleSubAdmin)
		subject = fmt.Sprintf("Leave Request %s Awaiting Your Review", req.ID)
		fallback = fmt.Sprintf(
			"Leave request %s from %s was approved by %s (%s) and now awaits your review.",
			req.ID, req.StudentName, actorName, actorRole)
		prompt = fmt.Sprintf(
			"Write a short email telling a sub-administrator that leave request %s from %s passed admin review and awaits them.",
			req.ID, req.StudentName)

	case leave.StatusPendingSuperAdmin:
		recipients = d.emailsForRoles(userDatamodel.RoleSuperAdmin)
		subject = fmt.Sprintf("Leave Request %s Awaiting Final Approval", req.ID)
		fallback = fmt.Sprintf(
			"Leave request %s from %s was approved by %s (%s) and now awaits final approval.",
			req.ID, req.StudentName, actorName, actorRole)
		prompt = fmt.Sprintf(
			"Write a short email telling a super-administrator that leave request %s from %s awaits final approval.",
			req.ID, req.StudentName)

	case leave.StatusApproved:
		recipients = append(
			[]string{req.StudentEmail},
			d.emailsForRoles(userDatamodel.ApproverRoles...)...,
		)
		subject = fmt.Sprintf("Leave Request %s Fully Approved", req.ID)
		fallback = fmt.Sprintf(
			"Good news %s! Your leave from %s to %s has been fully approved. Expected return date: %s.",
			req.StudentName, req.StartDate, req.EndDate, req.ExpectedReturnDate)
		prompt = fmt.Sprintf(
			"Write a warm email telling student %s their leave from %s to %s is fully approved, returning %s.",
			req.StudentName, req.StartDate, req.EndDate, req.ExpectedReturnDate)

	case leave.StatusRejected:
		recipients = append(
			[]string{req.StudentEmail},
			d.emailsForRoles(userDatamodel.ApproverRoles...)...,
		)
		reason := req.RejectionReason
		subject = fmt.Sprintf("Leave Request %s Rejected", req.ID)
		fallback = fmt.Sprintf(
			"Hello %s, your leave request from %s to %s was rejected by %s (%s).\n\nReason: %s",
			req.StudentName, req.StartDate, req.EndDate, actorName, actorRole, reason)
		prompt = fmt.Sprintf(
			"Write a considerate email telling student %s their leave request was rejected for this reason: %s",
			req.StudentName, reason)

	default:
		d.logger.Warn("notification skipped: no route for status",
			"leave_id", req.ID, "old_status", oldStatus, "new_status", newStatus)
		return
	}

	recipients = dedupe(recipients)
	if len(recipients) == 0 {
		d.logger.Warn("notification skipped: empty recipient set",
			"leave_id", req.ID, "new_status", newStatus)
		return
	}

	d.send(ctx, recipients, subject, prompt, fallback, req.ID)
}

func (d *Dispatcher) send(ctx context.Context, recipients []string, subject, prompt, fallback, leaveID string) {
	body := d.composer.Compose(ctx, prompt, fallback)
	d.sender.Send(mailer.Message{
		To:      recipients,
		Subject: subject,
		Body:    body,
	})
	d.logger.Info("notification dispatched",
		"leave_id", leaveID,
		"subject", subject,
		"recipients", len(recipients))
}

func (d *Dispatcher) emailsForRoles(roles ...userDatamodel.Role) []string {
	users, err := d.directory.ListByRoles(roles)
	if err != nil {
		d.logger.Error("failed to resolve notification recipients", "error", err, "roles", roles)
		return nil
	}

	emails := make([]string, 0, len(users))
	for _, u := range users {
		emails = append(emails, u.Email)
	}
	return dedupe(emails)
}

// dedupe drops blank addresses and duplicates while keeping order.
func dedupe(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		key := strings.ToLower(e)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}
