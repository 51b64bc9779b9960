package leave

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
)

// HistoryEntry is one step of the approval trail.
type HistoryEntry struct {
	Action string             `json:"action"`
	User   string             `json:"user"`
	Role   userDatamodel.Role `json:"role"`
	Date   time.Time          `json:"date"`
}

// HistoryLog is the append-only approval trail, stored as a single jsonb
// column since entries are only ever read and written as a unit.
type HistoryLog []HistoryEntry

func (h HistoryLog) Value() (driver.Value, error) {
	if h == nil {
		h = HistoryLog{}
	}
	return json.Marshal(h)
}

func (h *HistoryLog) Scan(value interface{}) error {
	if value == nil {
		*h = HistoryLog{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return fmt.Errorf("unsupported history column type %T", value)
	}
}

// StringList is a jsonb-backed list of document URLs.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		s = StringList{}
	}
	return json.Marshal(s)
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported document list column type %T", value)
	}
}

// Leave is the persisted leave request record. Dates are stored as
// YYYY-MM-DD strings, matching the wire format the clients submit.
type Leave struct {
	ID           string `json:"id" gorm:"primaryKey;size:20"`
	UserID       string `json:"user_id" gorm:"column:user_id;size:64;index;not null"`
	StudentName  string `json:"student_name" gorm:"column:student_name;not null"`
	StudentEmail string `json:"student_email" gorm:"column:student_email;not null"`

	Reason             string `json:"reason" gorm:"type:text;not null"`
	StartDate          string `json:"start_date" gorm:"column:start_date;size:10;not null"`
	EndDate            string `json:"end_date" gorm:"column:end_date;size:10;not null"`
	TotalDays          int    `json:"total_days" gorm:"column:total_days;not null"`
	ExpectedReturnDate string `json:"expected_return_date" gorm:"column:expected_return_date;size:10;not null"`
	AppliedDate        string `json:"applied_date" gorm:"column:applied_date;size:10;not null"`

	Status       string     `json:"status" gorm:"size:25;index;not null;default:PENDING_ADMIN"`
	History      HistoryLog `json:"history" gorm:"type:jsonb"`
	DocumentURLs StringList `json:"document_urls,omitempty" gorm:"column:document_urls;type:jsonb"`

	// Rejection metadata, populated only when Status is REJECTED.
	RejectionReason   string             `json:"rejection_reason,omitempty" gorm:"column:rejection_reason;type:text"`
	RejectedByRole    userDatamodel.Role `json:"rejected_by_role,omitempty" gorm:"column:rejected_by_role;size:20"`
	RejectedByEmail   string             `json:"rejected_by_email,omitempty" gorm:"column:rejected_by_email"`
	RejectionDateTime *time.Time         `json:"rejection_date_time,omitempty" gorm:"column:rejection_date_time"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Leave) TableName() string {
	return "leaves"
}
