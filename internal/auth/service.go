package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
)

const avatarURLTemplate = "https://api.dicebear.com/7.x/avataaars/svg?seed=%s"

type UserRepository interface {
	GetByEmail(email string) (*userDatamodel.User, error)
	GetByID(id string) (*userDatamodel.User, error)
	Create(user *userDatamodel.User) error
	RecordLogin(id string, role userDatamodel.Role, at time.Time) error
}

// Service is the main auth service with dependencies
type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	bcryptCost     int
	logger         *slog.Logger
	now            func() time.Time
}

// NewService creates a new auth service
func NewService(userRepo UserRepository, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcrypt.DefaultCost,
		logger:         logger,
		now:            time.Now,
	}
}

// Authenticate validates credentials, reconciles the stored profile and
// returns tokens carrying the canonical role.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, *Identity, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, nil, err
	}

	user, err := s.userRepo.GetByEmail(normalizeEmail(dto.Email))
	if err != nil {
		return AuthTokens{}, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, nil, ErrInvalidCredentials
	}

	identity := s.reconcile(user)
	tokens, err := s.issueTokens(identity)
	if err != nil {
		return AuthTokens{}, nil, err
	}
	return tokens, identity, nil
}

// Signup registers a local account. New accounts always start as students;
// elevated roles are only ever assigned through role management.
func (s *Service) Signup(dto SignupDTO) (AuthTokens, *Identity, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, nil, err
	}

	email := normalizeEmail(dto.Email)
	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return AuthTokens{}, nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return AuthTokens{}, nil, err
	}

	now := s.now()
	user := &userDatamodel.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(dto.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         userDatamodel.RoleUser,
		Avatar:       avatarFor(email),
		AuthProvider: userDatamodel.AuthProviderLocal,
		CreatedAt:    now,
		LastLoginAt:  &now,
	}
	user.SyncFlags()

	if err := s.userRepo.Create(user); err != nil {
		return AuthTokens{}, nil, err
	}

	identity := identityOf(user, true)
	tokens, err := s.issueTokens(identity)
	if err != nil {
		return AuthTokens{}, nil, err
	}
	return tokens, identity, nil
}

// GoogleLogin resolves the identity asserted by the external provider. A
// first-time caller gets a student profile created on the spot; a storage
// failure degrades to a non-persisted student identity instead of locking
// the caller out.
func (s *Service) GoogleLogin(dto GoogleLoginDTO) (AuthTokens, *Identity, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, nil, err
	}

	identity := s.ResolveIdentity(normalizeEmail(dto.Email), dto.Name, dto.Avatar)
	tokens, err := s.issueTokens(identity)
	if err != nil {
		return AuthTokens{}, nil, err
	}
	return tokens, identity, nil
}

// ResolveIdentity maps an externally asserted email to a stored profile,
// creating one when missing. The returned identity is always usable: when
// storage is down the caller proceeds as a non-persisted student.
func (s *Service) ResolveIdentity(email, name, avatar string) *Identity {
	user, err := s.userRepo.GetByEmail(email)
	if err == nil && user != nil {
		return s.reconcile(user)
	}
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		s.logger.Error("identity resolution: lookup failed, using fallback identity", "error", err, "email", email)
		return fallbackIdentity(email, name, avatar)
	}

	now := s.now()
	if strings.TrimSpace(name) == "" {
		name = nameFromEmail(email)
	}
	if avatar == "" {
		avatar = avatarFor(email)
	}
	user = &userDatamodel.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         userDatamodel.RoleUser,
		Avatar:       avatar,
		AuthProvider: userDatamodel.AuthProviderGoogle,
		CreatedAt:    now,
		LastLoginAt:  &now,
	}
	user.SyncFlags()

	if err := s.userRepo.Create(user); err != nil {
		s.logger.Error("identity resolution: profile creation failed, using fallback identity", "error", err, "email", email)
		return fallbackIdentity(email, name, avatar)
	}

	s.logger.Info("identity resolution: created new profile", "user_id", user.ID, "email", email)
	return identityOf(user, true)
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	// Re-read the profile so a role change since the last login shows up
	// in the new tokens.
	role := claims.Role
	if user, uerr := s.userRepo.GetByID(claims.UserID); uerr == nil && user != nil {
		role = string(userDatamodel.DeriveRole(user.IsAdmin, user.IsSubAdmin, user.IsSuperAdmin))
		if user.Role.Valid() {
			role = string(user.Role)
		}
	}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(claims.UserID, claims.Email, role)
	if err != nil {
		return AuthTokens{}, err
	}

	newRefreshToken, err := s.tokenGenerator.GenerateRefreshToken(claims.UserID, claims.Email, role)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

// IdentityForClaims loads the current profile for validated claims. When the
// profile cannot be read the claims themselves back a degraded identity, so
// an authenticated caller never turns into a hard failure mid-session.
func (s *Service) IdentityForClaims(claims *Claims) *Identity {
	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil || user == nil {
		s.logger.Warn("identity lookup failed, falling back to token claims", "user_id", claims.UserID, "error", err)
		role := userDatamodel.Role(claims.Role)
		if !role.Valid() {
			role = userDatamodel.RoleUser
		}
		return &Identity{
			ID:        claims.UserID,
			Name:      nameFromEmail(claims.Email),
			Email:     claims.Email,
			Role:      role,
			Persisted: false,
		}
	}
	return identityOf(user, true)
}

// reconcile re-derives the canonical role from the stored flags and bumps
// the login timestamp. Reconciliation failures are logged, never surfaced.
func (s *Service) reconcile(user *userDatamodel.User) *Identity {
	derived := userDatamodel.DeriveRole(user.IsAdmin, user.IsSubAdmin, user.IsSuperAdmin)
	if user.Role != derived {
		s.logger.Info("identity reconciliation: role corrected from flags",
			"user_id", user.ID, "stored_role", user.Role, "derived_role", derived)
		user.Role = derived
	}

	if err := s.userRepo.RecordLogin(user.ID, user.Role, s.now()); err != nil {
		s.logger.Error("identity reconciliation: failed to record login", "error", err, "user_id", user.ID)
	}

	return identityOf(user, true)
}

func (s *Service) issueTokens(identity *Identity) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(identity.ID, identity.Email, string(identity.Role))
	if err != nil {
		return AuthTokens{}, err
	}
	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(identity.ID, identity.Email, string(identity.Role))
	if err != nil {
		return AuthTokens{}, err
	}
	return AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func identityOf(user *userDatamodel.User, persisted bool) *Identity {
	return &Identity{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Avatar:    user.Avatar,
		Persisted: persisted,
	}
}

func fallbackIdentity(email, name, avatar string) *Identity {
	if strings.TrimSpace(name) == "" {
		name = nameFromEmail(email)
	}
	if avatar == "" {
		avatar = avatarFor(email)
	}
	return &Identity{
		ID:        "fallback-" + uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      userDatamodel.RoleUser,
		Avatar:    avatar,
		Persisted: false,
	}
}

func avatarFor(email string) string {
	return fmt.Sprintf(avatarURLTemplate, url.QueryEscape(email))
}

func nameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
