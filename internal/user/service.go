package user

import (
	"fmt"
	"log/slog"

	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
)

type Repository interface {
	GetByID(id string) (*userDatamodel.User, error)
	GetByEmail(email string) (*userDatamodel.User, error)
	List(limit, offset int) ([]*userDatamodel.User, error)
	ListByRoles(roles []userDatamodel.Role) ([]*userDatamodel.User, error)
	UpdateRole(id string, role userDatamodel.Role) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetByID(id string) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(u), nil
}

func (s *Service) List(limit, offset int) ([]*User, error) {
	models, err := s.repo.List(limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return FromDataModelSlice(models), nil
}

// assignableRoles returns the roles an actor may hand out. Super-admins
// assign anything; sub-admins only manage the tiers below themselves.
func assignableRoles(actor userDatamodel.Role) []userDatamodel.Role {
	switch actor {
	case userDatamodel.RoleSuperAdmin:
		return []userDatamodel.Role{
			userDatamodel.RoleUser,
			userDatamodel.RoleAdmin,
			userDatamodel.RoleSubAdmin,
			userDatamodel.RoleSuperAdmin,
		}
	case userDatamodel.RoleSubAdmin:
		return []userDatamodel.Role{
			userDatamodel.RoleUser,
			userDatamodel.RoleAdmin,
		}
	default:
		return nil
	}
}

// CanAssign reports whether the actor role may assign the target role.
func CanAssign(actor, target userDatamodel.Role) bool {
	for _, r := range assignableRoles(actor) {
		if r == target {
			return true
		}
	}
	return false
}

// UpdateRole changes a user's canonical role. The flag mirror is rewritten
// in the same statement so the two can never drift apart on this path.
func (s *Service) UpdateRole(targetID string, newRole userDatamodel.Role, actorRole userDatamodel.Role) (*User, error) {
	if !newRole.Valid() {
		return nil, ValidationError{Msg: "unknown role: " + string(newRole)}
	}

	if !CanAssign(actorRole, newRole) {
		s.logger.Warn("role assignment denied",
			"actor_role", actorRole, "target_role", newRole, "target_id", targetID)
		return nil, ErrRoleNotAssignable
	}

	target, err := s.repo.GetByID(targetID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRole(target.ID, newRole); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.Info("role updated",
		"target_id", target.ID, "old_role", target.Role, "new_role", newRole, "actor_role", actorRole)

	target.Role = newRole
	target.SyncFlags()
	return FromDataModel(target), nil
}
