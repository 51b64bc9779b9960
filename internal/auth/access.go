package auth

import (
	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
)

// View names a section of the product a role may open.
type View string

const (
	ViewUser       View = "USER"
	ViewAdmin      View = "ADMIN"
	ViewSubAdmin   View = "SUB_ADMIN"
	ViewSuperAdmin View = "SUPER_ADMIN"
	ViewRoleMgmt   View = "ROLE_MGMT"
	ViewProfile    View = "PROFILE"
)

// accessMatrix is a closed allow-list. The student view belongs to students
// only; approver tiers accumulate the role-scoped views from admin upward.
// The profile view is reachable from every role, and role management opens
// only at the sub-admin tier.
var accessMatrix = map[userDatamodel.Role][]View{
	userDatamodel.RoleUser: {
		ViewUser, ViewProfile,
	},
	userDatamodel.RoleAdmin: {
		ViewAdmin, ViewProfile,
	},
	userDatamodel.RoleSubAdmin: {
		ViewAdmin, ViewSubAdmin, ViewRoleMgmt, ViewProfile,
	},
	userDatamodel.RoleSuperAdmin: {
		ViewAdmin, ViewSubAdmin, ViewSuperAdmin, ViewRoleMgmt, ViewProfile,
	},
}

// AccessibleViews returns the views a role may open. Unknown roles get
// nothing rather than some default slice.
func AccessibleViews(role userDatamodel.Role) []View {
	views, ok := accessMatrix[role]
	if !ok {
		return nil
	}
	out := make([]View, len(views))
	copy(out, views)
	return out
}

// CanAccess reports whether a role may open a view.
func CanAccess(role userDatamodel.Role, view View) bool {
	for _, v := range accessMatrix[role] {
		if v == view {
			return true
		}
	}
	return false
}
