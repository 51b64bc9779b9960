package auth

import (
	"log/slog"
	"net/http"

	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
)

// RoleAuthorization gates routes on the caller's reconciled role.
type RoleAuthorization struct {
	logger *slog.Logger
}

func NewRoleAuthorization(logger *slog.Logger) *RoleAuthorization {
	return &RoleAuthorization{logger: logger}
}

// RequireView allows only callers whose role can open the given view.
func (ra *RoleAuthorization) RequireView(view View) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || identity == nil {
				ra.logger.Warn("authorization check failed: identity not found in context")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !CanAccess(identity.Role, view) {
				ra.logger.WarnContext(r.Context(), "access denied: view not reachable for role",
					"user_id", identity.ID,
					"role", identity.Role,
					"view", view)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireApprover allows admins, sub-admins and super-admins.
func (ra *RoleAuthorization) RequireApprover() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || identity == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !isApproverRole(identity.Role) {
				ra.logger.WarnContext(r.Context(), "access denied: approver role required",
					"user_id", identity.ID, "role", identity.Role)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoleManager allows only the tiers that may assign roles.
func (ra *RoleAuthorization) RequireRoleManager() func(http.Handler) http.Handler {
	return ra.RequireView(ViewRoleMgmt)
}

func isApproverRole(role userDatamodel.Role) bool {
	for _, r := range userDatamodel.ApproverRoles {
		if r == role {
			return true
		}
	}
	return false
}
