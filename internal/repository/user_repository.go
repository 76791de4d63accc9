package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"erp-service/internal/models"
	"erp-service/internal/rbac"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Role      rbac.Role
	ServiceID *uuid.UUID
	Search    string
	Page
}

// UserRepositoryInterface is the persistence contract for users.
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	SetCustomPermissions(ctx context.Context, id uuid.UUID, perms []string) error
	FindActiveApprover(ctx context.Context, role rbac.Role, serviceID *uuid.UUID) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// UserRepository handles database operations for users
type UserRepository struct {
	db *gorm.DB
}

var _ UserRepositoryInterface = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Service").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	var users []models.User
	var total int64
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.ServiceID != nil {
		query = query.Where("service_id = ?", *filter.ServiceID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("last_name, first_name").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&users).Error

	return users, total, err
}

// Update saves profile fields. Permissions go through SetCustomPermissions.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"role":       user.Role,
			"service_id": user.ServiceID,
			"is_active":  user.IsActive,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCustomPermissions stores an already validated override. nil clears it.
func (r *UserRepository) SetCustomPermissions(ctx context.Context, id uuid.UUID, perms []string) error {
	var value interface{}
	if perms != nil {
		value = pq.StringArray(perms)
	}
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"custom_permissions": value,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindActiveApprover returns the longest-standing active user with role,
// restricted to serviceID when given.
func (r *UserRepository) FindActiveApprover(ctx context.Context, role rbac.Role, serviceID *uuid.UUID) (*models.User, error) {
	var user models.User
	query := r.db.WithContext(ctx).Where("role = ? AND is_active = true", role)
	if serviceID != nil {
		query = query.Where("service_id = ?", *serviceID)
	}
	if err := query.Order("created_at ASC").First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}
