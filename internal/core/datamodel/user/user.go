package user

import "time"

// Role is the canonical role vocabulary. The string values are part of the
// storage schema and the API contract, so they never change casing.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSubAdmin   Role = "subAdmin"
	RoleSuperAdmin Role = "superAdmin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSubAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// ApproverRoles are the roles that participate in the approval chain.
var ApproverRoles = []Role{RoleAdmin, RoleSubAdmin, RoleSuperAdmin}

// DeriveRole maps the legacy boolean flag mirror back to a canonical role.
// Precedence: superAdmin > subAdmin > admin > user.
func DeriveRole(isAdmin, isSubAdmin, isSuperAdmin bool) Role {
	switch {
	case isSuperAdmin:
		return RoleSuperAdmin
	case isSubAdmin:
		return RoleSubAdmin
	case isAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Flags projects the canonical role onto the legacy boolean mirror. The
// flags are write-only denormalization: they are recomputed from the role on
// every persist and never consulted for authorization.
func (r Role) Flags() (isAdmin, isSubAdmin, isSuperAdmin bool) {
	return r == RoleAdmin, r == RoleSubAdmin, r == RoleSuperAdmin
}

type AuthProvider string

const (
	AuthProviderLocal  AuthProvider = "LOCAL"
	AuthProviderGoogle AuthProvider = "GOOGLE"
)

// User is the persisted profile record.
type User struct {
	ID           string       `json:"id" gorm:"primaryKey;size:64"`
	Name         string       `json:"name" gorm:"not null"`
	Email        string       `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string       `json:"-" gorm:"column:password_hash"`
	Role         Role         `json:"role" gorm:"size:20;not null;default:user"`
	Avatar       string       `json:"avatar"`
	AuthProvider AuthProvider `json:"auth_provider" gorm:"column:auth_provider;size:10;not null;default:LOCAL"`

	// Legacy flag mirror, kept consistent with Role by the persistence layer
	// and repaired by the reconciler when older writers drifted them.
	IsAdmin      bool `json:"is_admin" gorm:"column:is_admin;not null;default:false"`
	IsSubAdmin   bool `json:"is_sub_admin" gorm:"column:is_sub_admin;not null;default:false"`
	IsSuperAdmin bool `json:"is_super_admin" gorm:"column:is_super_admin;not null;default:false"`

	// Derived counters maintained by the reconciler.
	DaysTookLeave int `json:"days_took_leave" gorm:"column:days_took_leave;not null;default:0"`
	PendingLeaves int `json:"pending_leaves" gorm:"column:pending_leaves;not null;default:0"`

	CreatedAt   time.Time  `json:"created_at" gorm:"column:created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" gorm:"column:last_login_at"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

// SyncFlags recomputes the flag mirror from the canonical role.
func (u *User) SyncFlags() {
	u.IsAdmin, u.IsSubAdmin, u.IsSuperAdmin = u.Role.Flags()
}
