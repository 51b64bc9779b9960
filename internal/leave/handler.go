package leave

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	"github.com/navgurukul/leave-management/internal/auth"
	"github.com/navgurukul/leave-management/internal/transport"
	"github.com/navgurukul/leave-management/pkg/logger"
)

type ServiceAPI interface {
	Apply(applicant Actor, dto ApplyDTO) (*Request, error)
	GetByID(id string, actor Actor) (*Request, error)
	ListForUser(userID string, limit, offset int) ([]*Request, error)
	ListAll(actor Actor, limit, offset int) ([]*Request, error)
	Approve(id string, actor Actor) (*Request, error)
	Reject(id string, actor Actor, reason string) (*Request, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func actorFromContext(r *http.Request) (Actor, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil {
		return Actor{}, false
	}
	return Actor{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
		Role:  identity.Role,
	}, true
}

// Apply handles POST /leaves.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		h.Logger.Error("Apply: identity not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto ApplyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Apply: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Service.Apply(actor, dto)
	if err != nil {
		h.Logger.Error("Apply: service error", "error", err, "user_id", actor.ID)

		// Permission failures from the storage layer get a distinguishable
		// message so the form can tell the user it is not a transient error.
		if strings.Contains(strings.ToLower(err.Error()), "permission") {
			h.WriteError(w, http.StatusForbidden, "you do not have permission to submit leave requests")
			return
		}
		if errors.Is(err, ErrUnauthorizedAccess) {
			h.WriteError(w, http.StatusForbidden, "only students can submit leave requests")
			return
		}
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.Logger.Info("Apply: leave request submitted",
		"leave_id", req.ID,
		"user_id", actor.ID,
		"total_days", req.TotalDays)

	h.WriteJSON(w, http.StatusCreated, req)
}

// List handles GET /leaves: approvers get the full list, students their own.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		h.Logger.Error("List: identity not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := paginationParams(r)

	var (
		reqs []*Request
		err  error
	)
	if actor.IsApprover() {
		reqs, err = h.Service.ListAll(actor, limit, offset)
	} else {
		reqs, err = h.Service.ListForUser(actor.ID, limit, offset)
	}
	if err != nil {
		h.Logger.Error("List: service error", "error", err, "user_id", actor.ID)
		h.WriteError(w, http.StatusInternalServerError, "failed to list leave requests")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"leaves": reqs,
		"limit":  limit,
		"offset": offset,
	})
}

// Get handles GET /leaves/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		h.Logger.Error("Get: identity not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	req, err := h.Service.GetByID(id, actor)
	if err != nil {
		h.Logger.Error("Get: service error", "error", err, "leave_id", id)
		switch {
		case errors.Is(err, ErrLeaveNotFound):
			h.WriteError(w, http.StatusNotFound, "leave request not found")
		case errors.Is(err, ErrUnauthorizedAccess):
			h.WriteError(w, http.StatusForbidden, "you cannot view this leave request")
		default:
			h.WriteError(w, http.StatusInternalServerError, "failed to get leave request")
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

// Approve handles PATCH /leaves/{id}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		h.Logger.Error("Approve: identity not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	req, err := h.Service.Approve(id, actor)
	if err != nil {
		h.Logger.Error("Approve: service error", "error", err, "leave_id", id, "actor_id", actor.ID)
		h.writeTransitionError(w, err, "approve")
		return
	}

	h.Logger.Info("Approve: leave request advanced",
		"leave_id", id, "actor_id", actor.ID, "new_status", req.Status)
	h.WriteJSON(w, http.StatusOK, req)
}

// Reject handles PATCH /leaves/{id}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		h.Logger.Error("Reject: identity not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")

	var dto RejectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Reject: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.Logger.Error("Reject: validation error", "error", err)
		h.WriteError(w, http.StatusBadRequest, "rejection reason is required")
		return
	}

	req, err := h.Service.Reject(id, actor, dto.Reason)
	if err != nil {
		h.Logger.Error("Reject: service error", "error", err, "leave_id", id, "actor_id", actor.ID)
		h.writeTransitionError(w, err, "reject")
		return
	}

	h.Logger.Info("Reject: leave request rejected",
		"leave_id", id, "actor_id", actor.ID, "reason", dto.Reason)
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) writeTransitionError(w http.ResponseWriter, err error, verb string) {
	switch {
	case errors.Is(err, ErrLeaveNotFound):
		h.WriteError(w, http.StatusNotFound, "leave request not found")
	case errors.Is(err, ErrTerminalStatus):
		h.WriteError(w, http.StatusBadRequest, "leave request is already finalized")
	case errors.Is(err, ErrWrongStage):
		h.WriteError(w, http.StatusForbidden, "your role cannot "+verb+" this request at its current stage")
	case errors.Is(err, ErrUnauthorizedAccess):
		h.WriteError(w, http.StatusForbidden, "approver access required")
	case errors.Is(err, ErrStatusConflict):
		h.WriteError(w, http.StatusConflict, "the request was updated by someone else, reload and retry")
	case errors.Is(err, ErrReasonRequired):
		h.WriteError(w, http.StatusBadRequest, "rejection reason is required")
	default:
		h.WriteError(w, http.StatusInternalServerError, "failed to "+verb+" leave request")
	}
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
