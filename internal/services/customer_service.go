package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"erp-service/internal/apperrors"
	"erp-service/internal/models"
	"erp-service/internal/rbac"
	"erp-service/internal/repository"
)

// CustomerInput is the body of POST /customers and PUT /customers/:id.
type CustomerInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email,omitempty" binding:"omitempty,email"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	TaxID    string `json:"taxId,omitempty"`
	IsActive *bool  `json:"isActive,omitempty"`
}

func (in CustomerInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.Validation("Validation failed", "name is required")
	}
	return nil
}

// CustomerService manages customers. Non-global roles see customers of their
// own service plus shared ones.
type CustomerService struct {
	customers repository.CustomerRepositoryInterface
	sequences repository.SequenceRepositoryInterface
	logger    *logrus.Entry
	now       func() time.Time
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customers repository.CustomerRepositoryInterface, sequences repository.SequenceRepositoryInterface, logger *logrus.Logger) *CustomerService {
	return &CustomerService{
		customers: customers,
		sequences: sequences,
		logger:    logger.WithField("component", "customer_service"),
		now:       time.Now,
	}
}

func customerVisible(p rbac.Principal, c *models.Customer) bool {
	return rbac.Authorize(p, rbac.RequireServiceScope(), c.ServiceID).Allowed
}

func (s *CustomerService) Create(ctx context.Context, p rbac.Principal, input CustomerInput) (*models.Customer, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	year := s.now().UTC().Year()
	seq, err := s.sequences.Next(ctx, models.SequenceCustomer, year)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to allocate customer number: %w", err))
	}

	customer := &models.Customer{
		ID:        uuid.New(),
		Number:    formatNumber(models.SequencePrefixes[models.SequenceCustomer], year, seq),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Phone:     input.Phone,
		Address:   input.Address,
		TaxID:     input.TaxID,
		ServiceID: p.ServiceID,
		CreatedBy: p.UserID,
		IsActive:  true,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("Customer number already taken, retry the request")
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.WithFields(logrus.Fields{"customer_id": customer.ID, "number": customer.Number}).Info("Customer created")
	return customer, nil
}

func (s *CustomerService) Get(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Customer not found")
	}
	if !customerVisible(p, customer) {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

func (s *CustomerService) List(ctx context.Context, p rbac.Principal, search string, page repository.Page) (*ListResult[models.Customer], error) {
	filter := repository.CustomerFilter{Search: strings.TrimSpace(search), Page: page.Normalize()}
	if !p.SeesAllServices() {
		filter.ServiceID, filter.SharedOnly = listScope(p)
	}
	customers, total, err := s.customers.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return newListResult(customers, total, filter.Page), nil
}

func (s *CustomerService) Update(ctx context.Context, p rbac.Principal, id uuid.UUID, input CustomerInput) (*models.Customer, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	customer, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	customer.Name = strings.TrimSpace(input.Name)
	customer.Email = strings.TrimSpace(input.Email)
	customer.Phone = input.Phone
	customer.Address = input.Address
	customer.TaxID = input.TaxID
	if input.IsActive != nil {
		customer.IsActive = *input.IsActive
	}

	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, notFoundOr(err, "Customer not found")
	}
	return customer, nil
}
