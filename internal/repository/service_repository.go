package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"erp-service/internal/models"
)

// ServiceRepositoryInterface is the persistence contract for organizational services.
type ServiceRepositoryInterface interface {
	Create(ctx context.Context, service *models.Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	List(ctx context.Context, activeOnly bool) ([]models.Service, error)
	Update(ctx context.Context, service *models.Service) error
}

// ServiceRepository handles database operations for organizational services
type ServiceRepository struct {
	db *gorm.DB
}

var _ ServiceRepositoryInterface = (*ServiceRepository)(nil)

// NewServiceRepository creates a new ServiceRepository
func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) Create(ctx context.Context, service *models.Service) error {
	return translate(r.db.WithContext(ctx).Create(service).Error)
}

func (r *ServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var service models.Service
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&service).Error; err != nil {
		return nil, translate(err)
	}
	return &service, nil
}

func (r *ServiceRepository) List(ctx context.Context, activeOnly bool) ([]models.Service, error) {
	var services []models.Service
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("is_active = true")
	}
	err := query.Order("name").Find(&services).Error
	return services, err
}

func (r *ServiceRepository) Update(ctx context.Context, service *models.Service) error {
	result := r.db.WithContext(ctx).Model(&models.Service{}).
		Where("id = ?", service.ID).
		Updates(map[string]interface{}{
			"name":        service.Name,
			"description": service.Description,
			"is_active":   service.IsActive,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
