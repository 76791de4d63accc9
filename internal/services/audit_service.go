package services

import (
	"context"

	"erp-service/internal/apperrors"
	"erp-service/internal/models"
	"erp-service/internal/repository"
)

// AuditService exposes the audit trail read side.
type AuditService struct {
	repo repository.AuditRepositoryInterface
}

// NewAuditService creates a new AuditService
func NewAuditService(repo repository.AuditRepositoryInterface) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) List(ctx context.Context, filter repository.AuditFilter) (*ListResult[models.AuditLog], error) {
	filter.Page = filter.Page.Normalize()
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, apperrors.Validation("Validation failed", "to must not be before from")
	}
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return newListResult(logs, total, filter.Page), nil
}
