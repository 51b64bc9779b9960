package user

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/navgurukul/leave-management/internal/auth"
	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
	"github.com/navgurukul/leave-management/internal/transport"
	"github.com/navgurukul/leave-management/pkg/logger"
)

type ServiceAPI interface {
	GetByID(id string) (*User, error)
	List(limit, offset int) ([]*User, error)
	UpdateRole(targetID string, newRole userDatamodel.Role, actorRole userDatamodel.Role) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil {
		h.Logger.Error("GetCurrentUser: identity not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Service.GetByID(identity.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// A degraded identity has no stored profile. The session is
			// still valid, so answer from the identity itself.
			h.WriteJSON(w, http.StatusOK, map[string]interface{}{
				"id":     identity.ID,
				"email":  identity.Email,
				"name":   identity.Name,
				"role":   identity.Role,
				"avatar": identity.Avatar,
			})
			return
		}
		h.Logger.Error("GetCurrentUser: service GetByID failed", "user_id", identity.ID, "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// ListUsers handles GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	users, err := h.Service.List(limit, offset)
	if err != nil {
		h.Logger.Error("ListUsers: service error", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}

// UpdateRole handles PATCH /users/{id}/role
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdateRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	targetID := chi.URLParam(r, "id")
	updated, err := h.Service.UpdateRole(targetID, userDatamodel.Role(dto.Role), identity.Role)
	if err != nil {
		h.Logger.Error("UpdateRole: service error", "error", err,
			"target_id", targetID, "actor_id", identity.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			h.WriteError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, ErrRoleNotAssignable):
			h.WriteError(w, http.StatusForbidden, "your role cannot assign this role")
		default:
			if _, ok := err.(ValidationError); ok {
				h.WriteError(w, http.StatusBadRequest, err.Error())
				return
			}
			h.WriteError(w, http.StatusInternalServerError, "failed to update role")
		}
		return
	}

	h.Logger.Info("UpdateRole: role assigned",
		"target_id", targetID, "new_role", dto.Role, "actor_id", identity.ID)
	h.WriteJSON(w, http.StatusOK, updated)
}
