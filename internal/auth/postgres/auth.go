package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/navgurukul/leave-management/internal/auth"
	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetByEmail(email string) (*userDatamodel.User, error) {
	var user userDatamodel.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetByID(id string) (*userDatamodel.User, error) {
	var user userDatamodel.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) Create(user *userDatamodel.User) error {
	return r.db.Create(user).Error
}

// RecordLogin bumps the login timestamp and writes back the canonical role
// together with its flag projection.
func (r *Repository) RecordLogin(id string, role userDatamodel.Role, at time.Time) error {
	isAdmin, isSubAdmin, isSuperAdmin := role.Flags()
	return r.db.Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"role":           string(role),
			"is_admin":       isAdmin,
			"is_sub_admin":   isSubAdmin,
			"is_super_admin": isSuperAdmin,
			"last_login_at":  at,
			"updated_at":     time.Now(),
		}).Error
}
