package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"erp-service/internal/apperrors"
	"erp-service/internal/models"
	"erp-service/internal/repository"
)

// ServiceInput is the body for creating or updating an organizational service.
type ServiceInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

// OrgService manages the organizational units users and quotes belong to.
type OrgService struct {
	repo repository.ServiceRepositoryInterface
}

// NewOrgService creates a new OrgService
func NewOrgService(repo repository.ServiceRepositoryInterface) *OrgService {
	return &OrgService{repo: repo}
}

func (s *OrgService) List(ctx context.Context, activeOnly bool) ([]models.Service, error) {
	items, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if items == nil {
		items = []models.Service{}
	}
	return items, nil
}

func (s *OrgService) Get(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Service not found")
	}
	return svc, nil
}

func (s *OrgService) Create(ctx context.Context, input ServiceInput) (*models.Service, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.Validation("Validation failed", "name is required")
	}
	svc := &models.Service{ID: uuid.New(), Name: name, Description: input.Description, IsActive: true}
	if err := s.repo.Create(ctx, svc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("A service with this name already exists")
		}
		return nil, apperrors.Internal(err)
	}
	return svc, nil
}

func (s *OrgService) Update(ctx context.Context, id uuid.UUID, input ServiceInput) (*models.Service, error) {
	svc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		svc.Name = name
	}
	svc.Description = input.Description
	if input.IsActive != nil {
		svc.IsActive = *input.IsActive
	}
	if err := s.repo.Update(ctx, svc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("A service with this name already exists")
		}
		return nil, notFoundOr(err, "Service not found")
	}
	return svc, nil
}
