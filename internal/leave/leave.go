package leave

import (
	"errors"
	"fmt"
	"strings"
	"time"

	leaveDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/leave"
	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
)

// Status is the leave request lifecycle. Requests move forward through the
// pending chain one stage at a time, or sideways into REJECTED; APPROVED and
// REJECTED are terminal.
type Status string

const (
	StatusPendingAdmin      Status = "PENDING_ADMIN"
	StatusPendingSubAdmin   Status = "PENDING_SUBADMIN"
	StatusPendingSuperAdmin Status = "PENDING_SUPERADMIN"
	StatusApproved          Status = "APPROVED"
	StatusRejected          Status = "REJECTED"
)

// PendingMarker is shared by every pending status and is what the
// reconciler counts against.
const PendingMarker = "PENDING"

const (
	ActionApplied  = "Applied"
	ActionApproved = "Approved"
	ActionRejected = "Rejected"
)

const dateLayout = "2006-01-02"

var (
	ErrLeaveNotFound      = errors.New("leave request not found")
	ErrWrongStage         = errors.New("actor role does not match the pending stage")
	ErrTerminalStatus     = errors.New("leave request is already finalized")
	ErrStatusConflict     = errors.New("leave request was modified concurrently")
	ErrReasonRequired     = errors.New("rejection reason is required")
	ErrUnauthorizedAccess = errors.New("unauthorized access to leave request")
)

func (s Status) Valid() bool {
	switch s {
	case StatusPendingAdmin, StatusPendingSubAdmin, StatusPendingSuperAdmin, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s Status) IsPending() bool {
	return strings.Contains(string(s), PendingMarker)
}

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// NextStatus returns the status one stage further along the chain. The
// second return is false when the status has no forward transition.
func NextStatus(s Status) (Status, bool) {
	switch s {
	case StatusPendingAdmin:
		return StatusPendingSubAdmin, true
	case StatusPendingSubAdmin:
		return StatusPendingSuperAdmin, true
	case StatusPendingSuperAdmin:
		return StatusApproved, true
	default:
		return s, false
	}
}

// StageRole returns the role entitled to act on a request in the given
// pending status.
func StageRole(s Status) (userDatamodel.Role, bool) {
	switch s {
	case StatusPendingAdmin:
		return userDatamodel.RoleAdmin, true
	case StatusPendingSubAdmin:
		return userDatamodel.RoleSubAdmin, true
	case StatusPendingSuperAdmin:
		return userDatamodel.RoleSuperAdmin, true
	default:
		return "", false
	}
}

// Actor is the authenticated identity performing an action.
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  userDatamodel.Role
}

func (a Actor) IsApprover() bool {
	for _, r := range userDatamodel.ApproverRoles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// Request is the domain view of a leave request.
type Request struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`

	Reason             string `json:"reason"`
	StartDate          string `json:"start_date"`
	EndDate            string `json:"end_date"`
	TotalDays          int    `json:"total_days"`
	ExpectedReturnDate string `json:"expected_return_date"`
	AppliedDate        string `json:"applied_date"`

	Status       Status                      `json:"status"`
	History      leaveDatamodel.HistoryLog   `json:"history"`
	DocumentURLs []string                    `json:"document_urls,omitempty"`

	RejectionReason   string             `json:"rejection_reason,omitempty"`
	RejectedByRole    userDatamodel.Role `json:"rejected_by_role,omitempty"`
	RejectedByEmail   string             `json:"rejected_by_email,omitempty"`
	RejectionDateTime *time.Time         `json:"rejection_date_time,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TotalDaysBetween computes the inclusive day count of a leave span.
// A single-day leave counts as 1.
func TotalDaysBetween(start, end time.Time) int {
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 0 {
		return 0
	}
	return days
}

// ExpectedReturn is the first day back, the day after the leave ends.
func ExpectedReturn(end time.Time) string {
	return end.AddDate(0, 0, 1).Format(dateLayout)
}

// NewRequestID derives a short reference ID from the current time.
func NewRequestID(now time.Time) string {
	millis := now.UnixMilli()
	return fmt.Sprintf("LV-%06d", millis%1000000)
}

// NewRequest builds a PENDING_ADMIN request for the applicant with the
// approval trail seeded with its Applied entry.
func NewRequest(applicant Actor, dto ApplyDTO, now time.Time) *Request {
	start, _ := time.Parse(dateLayout, dto.StartDate)
	end, _ := time.Parse(dateLayout, dto.EndDate)

	return &Request{
		ID:                 NewRequestID(now),
		UserID:             applicant.ID,
		StudentName:        applicant.Name,
		StudentEmail:       applicant.Email,
		Reason:             dto.Reason,
		StartDate:          dto.StartDate,
		EndDate:            dto.EndDate,
		TotalDays:          TotalDaysBetween(start, end),
		ExpectedReturnDate: ExpectedReturn(end),
		AppliedDate:        now.Format(dateLayout),
		Status:             StatusPendingAdmin,
		DocumentURLs:       dto.DocumentURLs,
		History: leaveDatamodel.HistoryLog{
			{Action: ActionApplied, User: applicant.Name, Role: applicant.Role, Date: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func ToDataModel(r *Request) *leaveDatamodel.Leave {
	return &leaveDatamodel.Leave{
		ID:                 r.ID,
		UserID:             r.UserID,
		StudentName:        r.StudentName,
		StudentEmail:       r.StudentEmail,
		Reason:             r.Reason,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		TotalDays:          r.TotalDays,
		ExpectedReturnDate: r.ExpectedReturnDate,
		AppliedDate:        r.AppliedDate,
		Status:             string(r.Status),
		History:            r.History,
		DocumentURLs:       leaveDatamodel.StringList(r.DocumentURLs),
		RejectionReason:    r.RejectionReason,
		RejectedByRole:     r.RejectedByRole,
		RejectedByEmail:    r.RejectedByEmail,
		RejectionDateTime:  r.RejectionDateTime,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func FromDataModel(m *leaveDatamodel.Leave) *Request {
	return &Request{
		ID:                 m.ID,
		UserID:             m.UserID,
		StudentName:        m.StudentName,
		StudentEmail:       m.StudentEmail,
		Reason:             m.Reason,
		StartDate:          m.StartDate,
		EndDate:            m.EndDate,
		TotalDays:          m.TotalDays,
		ExpectedReturnDate: m.ExpectedReturnDate,
		AppliedDate:        m.AppliedDate,
		Status:             Status(m.Status),
		History:            m.History,
		DocumentURLs:       []string(m.DocumentURLs),
		RejectionReason:    m.RejectionReason,
		RejectedByRole:     m.RejectedByRole,
		RejectedByEmail:    m.RejectedByEmail,
		RejectionDateTime:  m.RejectionDateTime,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func FromDataModelSlice(models []*leaveDatamodel.Leave) []*Request {
	result := make([]*Request, len(models))
	for i, m := range models {
		result[i] = FromDataModel(m)
	}
	return result
}
