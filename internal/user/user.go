package user

import (
	"errors"
	"time"

	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
)

// User is the profile view returned over the API. The flag mirror stays
// internal; callers only ever see the canonical role.
type User struct {
	ID            string             `json:"id"`
	Email         string             `json:"email"`
	Name          string             `json:"name"`
	PasswordHash  string             `json:"-"`
	Role          userDatamodel.Role `json:"role"`
	Avatar        string             `json:"avatar,omitempty"`
	AuthProvider  string             `json:"auth_provider"`
	DaysTookLeave int                `json:"days_took_leave"`
	PendingLeaves int                `json:"pending_leaves"`
	CreatedAt     time.Time          `json:"created_at"`
	LastLoginAt   *time.Time         `json:"last_login_at,omitempty"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

var (
	ErrNotFound          = errors.New("user not found")
	ErrRoleNotAssignable = errors.New("role not assignable by caller")
)

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		PasswordHash:  u.PasswordHash,
		Role:          u.Role,
		Avatar:        u.Avatar,
		AuthProvider:  string(u.AuthProvider),
		DaysTookLeave: u.DaysTookLeave,
		PendingLeaves: u.PendingLeaves,
		CreatedAt:     u.CreatedAt,
		LastLoginAt:   u.LastLoginAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func FromDataModelSlice(models []*userDatamodel.User) []*User {
	users := make([]*User, 0, len(models))
	for _, m := range models {
		users = append(users, FromDataModel(m))
	}
	return users
}
