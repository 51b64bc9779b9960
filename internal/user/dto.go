package user

import (
	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
)

// UpdateRoleDTO assigns a new role to a user.
type UpdateRoleDTO struct {
	Role string `json:"role"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d UpdateRoleDTO) Validate() error {
	if d.Role == "" {
		return ValidationError{Msg: "role is required"}
	}
	if !userDatamodel.Role(d.Role).Valid() {
		return ValidationError{Msg: "unknown role: " + d.Role}
	}
	return nil
}
