package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"erp-service/internal/models"
)

// CustomerFilter narrows customer listings.
type CustomerFilter struct {
	Search    string
	ServiceID *uuid.UUID
	// SharedOnly restricts the listing to customers without a service.
	SharedOnly bool
	Page
}

// CustomerRepositoryInterface is the persistence contract for customers.
type CustomerRepositoryInterface interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, filter CustomerFilter) ([]models.Customer, int64, error)
	Update(ctx context.Context, customer *models.Customer) error
}

// CustomerRepository handles database operations for customers
type CustomerRepository struct {
	db *gorm.DB
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return translate(r.db.WithContext(ctx).Create(customer).Error)
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}

func (r *CustomerRepository) List(ctx context.Context, filter CustomerFilter) ([]models.Customer, int64, error) {
	var customers []models.Customer
	var total int64
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Customer{})
	switch {
	case filter.SharedOnly:
		query = query.Where("service_id IS NULL")
	case filter.ServiceID != nil:
		query = query.Where("(service_id = ? OR service_id IS NULL)", *filter.ServiceID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(number) LIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("name").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&customers).Error

	return customers, total, err
}

func (r *CustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	result := r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]interface{}{
			"name":       customer.Name,
			"email":      customer.Email,
			"phone":      customer.Phone,
			"address":    customer.Address,
			"tax_id":     customer.TaxID,
			"is_active":  customer.IsActive,
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
