package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"erp-service/internal/models"
)

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	UserID     *uuid.UUID
	Resource   string
	ResourceID *uuid.UUID
	Action     string
	From       *time.Time
	To         *time.Time
	Page
}

// AuditRepositoryInterface is append and read only.
type AuditRepositoryInterface interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, int64, error)
}

// AuditRepository handles database operations for the audit trail
type AuditRepository struct {
	db *gorm.DB
}

var _ AuditRepositoryInterface = (*AuditRepository)(nil)

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *AuditRepository) List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, int64, error) {
	var entries []models.AuditLog
	var total int64
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Resource != "" {
		query = query.Where("resource = ?", filter.Resource)
	}
	if filter.ResourceID != nil {
		query = query.Where("resource_id = ?", *filter.ResourceID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&entries).Error

	return entries, total, err
}
