package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"erp-service/internal/apperrors"
	"erp-service/internal/auth"
	"erp-service/internal/cache"
	"erp-service/internal/models"
	"erp-service/internal/rbac"
	"erp-service/internal/repository"
)

var ErrUserNotFound = apperrors.NotFound("User not found")

// CreateUserInput is the body of POST /users.
type CreateUserInput struct {
	Email     string     `json:"email" binding:"required,email"`
	Password  string     `json:"password" binding:"required"`
	FirstName string     `json:"firstName" binding:"required"`
	LastName  string     `json:"lastName" binding:"required"`
	Role      string     `json:"role" binding:"required"`
	ServiceID *uuid.UUID `json:"serviceId,omitempty"`
}

// UpdateUserInput is the body of PUT /users/:id. Nil fields are kept.
type UpdateUserInput struct {
	FirstName *string    `json:"firstName,omitempty"`
	LastName  *string    `json:"lastName,omitempty"`
	Role      *string    `json:"role,omitempty"`
	ServiceID *uuid.UUID `json:"serviceId,omitempty"`
	IsActive  *bool      `json:"isActive,omitempty"`
}

// SetPermissionsInput is the body of PUT /users/:id/permissions.
type SetPermissionsInput struct {
	Permissions []string `json:"permissions"`
}

// UserPermissions describes the effective permission set of a user.
type UserPermissions struct {
	UserID      uuid.UUID          `json:"userId"`
	Role        rbac.Role          `json:"role"`
	Custom      bool               `json:"custom"`
	Permissions rbac.PermissionSet `json:"permissions"`
}

// PermissionCatalog is the response of GET /permissions.
type PermissionCatalog struct {
	Permissions map[rbac.PermissionKey]string      `json:"permissions"`
	Roles       map[rbac.Role][]rbac.PermissionKey `json:"roles"`
}

// UserService manages accounts, roles and permission overrides.
type UserService struct {
	users    repository.UserRepositoryInterface
	services repository.ServiceRepositoryInterface
	cache    *cache.Cache
	logger   *logrus.Entry
}

// NewUserService creates a new UserService
func NewUserService(users repository.UserRepositoryInterface, services repository.ServiceRepositoryInterface, c *cache.Cache, logger *logrus.Logger) *UserService {
	return &UserService{
		users:    users,
		services: services,
		cache:    c,
		logger:   logger.WithField("component", "user_service"),
	}
}

func (s *UserService) List(ctx context.Context, role, search string, serviceID *uuid.UUID, page repository.Page) (*ListResult[models.User], error) {
	filter := repository.UserFilter{ServiceID: serviceID, Search: strings.TrimSpace(search), Page: page.Normalize()}
	if role != "" {
		r, err := rbac.ParseRole(role)
		if err != nil {
			return nil, apperrors.Validation("Validation failed", err.Error())
		}
		filter.Role = r
	}
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return newListResult(users, total, filter.Page), nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return user, nil
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	var details []string
	role, err := rbac.ParseRole(input.Role)
	if err != nil {
		details = append(details, err.Error())
	}
	if len(input.Password) < auth.MinPasswordLength {
		details = append(details, fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	if role == rbac.RoleServiceManager && input.ServiceID == nil {
		details = append(details, "serviceId is required for a service manager")
	}
	if len(details) > 0 {
		return nil, apperrors.Validation("Validation failed", details...)
	}
	if err := s.checkService(ctx, input.ServiceID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         role,
		ServiceID:    input.ServiceID,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("A user with this email already exists")
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User created")
	return user, nil
}

func (s *UserService) checkService(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.services.GetByID(ctx, *id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Validation("Validation failed", "serviceId does not reference an existing service")
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Role != nil {
		role, err := rbac.ParseRole(*input.Role)
		if err != nil {
			return nil, apperrors.Validation("Validation failed", err.Error())
		}
		user.Role = role
	}
	if input.ServiceID != nil {
		if err := s.checkService(ctx, input.ServiceID); err != nil {
			return nil, err
		}
		user.ServiceID = input.ServiceID
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if user.Role == rbac.RoleServiceManager && user.ServiceID == nil {
		return nil, apperrors.Validation("Validation failed", "serviceId is required for a service manager")
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	s.invalidatePrincipal(ctx, id)
	return user, nil
}

// SetPermissions replaces the role default with an explicit override. Unknown
// keys reject the whole request.
func (s *UserService) SetPermissions(ctx context.Context, id uuid.UUID, input SetPermissionsInput) (*UserPermissions, error) {
	if input.Permissions == nil {
		return nil, apperrors.Validation("Validation failed", "permissions is required, use DELETE to reset to the role default")
	}
	set, err := rbac.ValidateOverride(input.Permissions)
	if err != nil {
		var unknown *rbac.UnknownPermissionsError
		if errors.As(err, &unknown) {
			details := make([]string, len(unknown.Keys))
			for i, k := range unknown.Keys {
				details[i] = fmt.Sprintf("unknown permission %q", k)
			}
			return nil, apperrors.Validation("Unknown permission keys", details...)
		}
		return nil, apperrors.Validation("Validation failed", err.Error())
	}

	if err := s.users.SetCustomPermissions(ctx, id, set.Strings()); err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	s.invalidatePrincipal(ctx, id)
	return s.Permissions(ctx, id)
}

// ResetPermissions drops the override so the role default applies again.
func (s *UserService) ResetPermissions(ctx context.Context, id uuid.UUID) (*UserPermissions, error) {
	if err := s.users.SetCustomPermissions(ctx, id, nil); err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	s.invalidatePrincipal(ctx, id)
	return s.Permissions(ctx, id)
}

// Permissions returns the effective permissions of a user.
func (s *UserService) Permissions(ctx context.Context, id uuid.UUID) (*UserPermissions, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := user.Principal()
	return &UserPermissions{
		UserID:      user.ID,
		Role:        user.Role,
		Custom:      user.CustomPermissions != nil,
		Permissions: p.Permissions,
	}, nil
}

// Catalog lists every permission and the default set of each role.
func (s *UserService) Catalog() PermissionCatalog {
	roles := make(map[rbac.Role][]rbac.PermissionKey, len(rbac.AllRoles))
	for _, role := range rbac.AllRoles {
		roles[role] = rbac.DefaultPermissions(role).Keys()
	}
	return PermissionCatalog{Permissions: rbac.Catalog, Roles: roles}
}

func (s *UserService) invalidatePrincipal(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Invalidate(ctx, cache.PrincipalKey(id)); err != nil {
		s.logger.WithError(err).WithField("user_id", id).Warn("Failed to invalidate principal cache")
	}
}
