package postgres

import (
	"time"

	"gorm.io/gorm"

	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
	"github.com/navgurukul/leave-management/internal/user"
)

// UserRepository implements the user.Repository interface using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(id string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.Where("id = ?", id).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(limit, offset int) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.db.Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, err
}

// ListByRoles retrieves all users holding any of the given roles.
func (r *UserRepository) ListByRoles(roles []userDatamodel.Role) ([]*userDatamodel.User, error) {
	roleStrings := make([]string, 0, len(roles))
	for _, role := range roles {
		roleStrings = append(roleStrings, string(role))
	}

	var users []*userDatamodel.User
	err := r.db.Where("role IN ?", roleStrings).Find(&users).Error
	return users, err
}

// UpdateRole writes the canonical role and its flag mirror together.
func (r *UserRepository) UpdateRole(id string, role userDatamodel.Role) error {
	isAdmin, isSubAdmin, isSuperAdmin := role.Flags()
	result := r.db.Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"role":           string(role),
			"is_admin":       isAdmin,
			"is_sub_admin":   isSubAdmin,
			"is_super_admin": isSuperAdmin,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}

// UpdateDerivedState corrects the leave counters and flag mirror. The write
// is conditional on the values actually diverging, so a clean profile is a
// no-op and repeated reconciliation converges.
func (r *UserRepository) UpdateDerivedState(id string, daysTookLeave, pendingLeaves int, role userDatamodel.Role) (bool, error) {
	isAdmin, isSubAdmin, isSuperAdmin := role.Flags()
	result := r.db.Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Where(
			"days_took_leave <> ? OR pending_leaves <> ? OR is_admin <> ? OR is_sub_admin <> ? OR is_super_admin <> ?",
			daysTookLeave, pendingLeaves, isAdmin, isSubAdmin, isSuperAdmin,
		).
		Updates(map[string]interface{}{
			"days_took_leave": daysTookLeave,
			"pending_leaves":  pendingLeaves,
			"is_admin":        isAdmin,
			"is_sub_admin":    isSubAdmin,
			"is_super_admin":  isSuperAdmin,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
