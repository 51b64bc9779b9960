package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/navgurukul/leave-management/internal/transport"
	"github.com/navgurukul/leave-management/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, *Identity, error)
	Signup(dto SignupDTO) (AuthTokens, *Identity, error)
	GoogleLogin(dto GoogleLoginDTO) (AuthTokens, *Identity, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	IdentityForClaims(claims *Claims) *Identity
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

type sessionResponse struct {
	AuthTokens
	User  *Identity `json:"user"`
	Views []View    `json:"views"`
}

func newSessionResponse(tokens AuthTokens, identity *Identity) sessionResponse {
	return sessionResponse{
		AuthTokens: tokens,
		User:       identity,
		Views:      AccessibleViews(identity.Role),
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, identity, err := h.Service.Authenticate(dto)
	if err != nil {
		h.Logger.Error("authentication failed", "error", err)
		h.writeAuthError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, newSessionResponse(tokens, identity))
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var dto SignupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, identity, err := h.Service.Signup(dto)
	if err != nil {
		h.Logger.Error("signup failed", "error", err)
		if err == ErrEmailTaken {
			h.WriteError(w, http.StatusConflict, "email already registered")
			return
		}
		if _, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.WriteJSON(w, http.StatusCreated, newSessionResponse(tokens, identity))
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var dto GoogleLoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, identity, err := h.Service.GoogleLogin(dto)
	if err != nil {
		h.Logger.Error("google login failed", "error", err)
		h.writeAuthError(w, err)
		return
	}

	resp := newSessionResponse(tokens, identity)
	if !identity.Persisted {
		h.Logger.Warn("google login proceeding with non-persisted identity", "email", identity.Email)
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.Service.RefreshTokens(dto.RefreshToken)
	if err != nil {
		h.Logger.Error("token refresh failed", "error", err)

		switch err {
		case ErrInvalidToken, ErrTokenExpired:
			h.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		default:
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	if _, err := h.Service.ValidateAccessToken(token); err != nil {
		h.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Views returns the sections the authenticated caller may open.
func (h *Handler) Views(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok || identity == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"role":  identity.Role,
		"views": AccessibleViews(identity.Role),
	})
}

// AuthMiddleware validates the bearer token and attaches the reconciled
// identity to the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.Logger.Error("auth middleware: missing authorization token")
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.Logger.Error("auth middleware: token validation failed", "error", err)
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		identity := h.Service.IdentityForClaims(claims)
		ctx := ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) writeAuthError(w http.ResponseWriter, err error) {
	switch err {
	case ErrInvalidCredentials:
		h.WriteError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		if _, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, err.Error())
		} else {
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
	}
}
