package postgres

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/navgurukul/leave-management/internal"
	leaveDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/leave"
	"github.com/navgurukul/leave-management/internal/leave"
)

// LeaveRepository implements the leave.Repository interface using GORM
type LeaveRepository struct {
	db *gorm.DB
}

// NewLeaveRepository creates a new leave repository
func NewLeaveRepository(db *gorm.DB) leave.Repository {
	return &LeaveRepository{db: db}
}

// Create saves a new leave request to the database
func (r *LeaveRepository) Create(req *leave.Request) error {
	model := leave.ToDataModel(req)
	if err := r.db.Create(model).Error; err != nil {
		if isPermissionDenied(err) {
			return internal.NewForbiddenError("permission denied when saving leave request", internal.ErrCodePermissionWrite)
		}
		return err
	}
	return nil
}

// GetByID retrieves a leave request by its ID
func (r *LeaveRepository) GetByID(id string) (*leave.Request, error) {
	var model leaveDatamodel.Leave
	err := r.db.Where("id = ?", id).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, leave.ErrLeaveNotFound
		}
		return nil, err
	}
	return leave.FromDataModel(&model), nil
}

// GetByUserID retrieves leave requests for a specific user with pagination
func (r *LeaveRepository) GetByUserID(userID string, limit, offset int) ([]*leave.Request, error) {
	var models []*leaveDatamodel.Leave
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return leave.FromDataModelSlice(models), nil
}

// GetAll retrieves leave requests across all users with pagination
func (r *LeaveRepository) GetAll(limit, offset int) ([]*leave.Request, error) {
	var models []*leaveDatamodel.Leave
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return leave.FromDataModelSlice(models), nil
}

// AdvanceStatus moves a request from one status to the next. The update is
// conditional on the current status so two approvers acting on the same
// request cannot both win: the second update matches zero rows.
func (r *LeaveRepository) AdvanceStatus(id string, from, to leave.Status, history leaveDatamodel.HistoryLog) (bool, error) {
	result := r.db.Model(&leaveDatamodel.Leave{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{
			"status":     string(to),
			"history":    history,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkRejected finalizes a request as rejected, again conditional on the
// status the actor last saw.
func (r *LeaveRepository) MarkRejected(id string, from leave.Status, rejection leave.Rejection, history leaveDatamodel.HistoryLog) (bool, error) {
	result := r.db.Model(&leaveDatamodel.Leave{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{
			"status":              string(leave.StatusRejected),
			"history":             history,
			"rejection_reason":    rejection.Reason,
			"rejected_by_role":    rejection.ByRole,
			"rejected_by_email":   rejection.ByEmail,
			"rejection_date_time": rejection.At,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func isPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission denied") || strings.Contains(msg, "insufficient privilege")
}
