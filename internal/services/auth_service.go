package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"erp-service/internal/apperrors"
	"erp-service/internal/auth"
	"erp-service/internal/cache"
	"erp-service/internal/models"
	"erp-service/internal/rbac"
	"erp-service/internal/repository"
)

var (
	ErrInvalidCredentials = apperrors.Authentication("Invalid email or password")
	ErrInvalidToken       = apperrors.Authentication("Invalid or expired token")
	ErrAccountDisabled    = apperrors.Authentication("Account is disabled")
)

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshInput is the body of POST /auth/refresh.
type RefreshInput struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LoginResult bundles the tokens with the signed-in user.
type LoginResult struct {
	*auth.TokenPair
	User *models.User `json:"user"`
}

// AuthService authenticates users and resolves request principals.
type AuthService struct {
	users  repository.UserRepositoryInterface
	tokens *auth.TokenManager
	cache  *cache.Cache
	logger *logrus.Entry
	now    func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(users repository.UserRepositoryInterface, tokens *auth.TokenManager, c *cache.Cache, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		cache:  c,
		logger: logger.WithField("component", "auth_service"),
		now:    time.Now,
	}
}

// Login checks the password and issues a token pair.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperrors.Internal(err)
	}
	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		s.logger.WithField("user_id", user.ID).Warn("Failed login attempt")
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	pair, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}
	user.LastLoginAt = &now

	return &LoginResult{TokenPair: pair, User: user}, nil
}

// Refresh exchanges a refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (*auth.TokenPair, error) {
	claims, err := s.tokens.Verify(input.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, uuid.MustParse(claims.UserID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, apperrors.Internal(err)
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	pair, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return pair, nil
}

// Authenticate verifies an access token and returns the caller's principal.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (rbac.Principal, error) {
	claims, err := s.tokens.Verify(accessToken, auth.TokenTypeAccess)
	if err != nil {
		return rbac.Principal{}, ErrInvalidToken
	}
	return s.ResolvePrincipal(ctx, uuid.MustParse(claims.UserID))
}

// ResolvePrincipal loads the user's current role, service and effective
// permissions, going through the cache when one is configured.
func (s *AuthService) ResolvePrincipal(ctx context.Context, userID uuid.UUID) (rbac.Principal, error) {
	var cached rbac.Principal
	if hit, err := s.cache.Get(ctx, cache.PrincipalKey(userID), &cached); err != nil {
		s.logger.WithError(err).Debug("Principal cache read failed")
	} else if hit {
		return cached, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return rbac.Principal{}, ErrInvalidToken
		}
		return rbac.Principal{}, apperrors.Internal(err)
	}
	if !user.IsActive {
		return rbac.Principal{}, ErrAccountDisabled
	}

	p := user.Principal()
	if err := s.cache.Set(ctx, cache.PrincipalKey(userID), p); err != nil {
		s.logger.WithError(err).Debug("Principal cache write failed")
	}
	return p, nil
}

// Me returns the account behind p.
func (s *AuthService) Me(ctx context.Context, p rbac.Principal) (*models.User, error) {
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return user, nil
}
