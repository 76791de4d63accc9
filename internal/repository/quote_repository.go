package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"erp-service/internal/models"
)

// QuoteFilter narrows quote listings. Nil/empty fields do not filter.
type QuoteFilter struct {
	CreatedBy  *uuid.UUID
	ServiceID  *uuid.UUID
	CustomerID *uuid.UUID
	Statuses   []models.QuoteStatus
	Search     string
	Page
}

// ExpiryCursor is the (valid_until, id) position of the last quote of an
// expiry batch. The next batch starts strictly after it.
type ExpiryCursor struct {
	ValidUntil time.Time
	ID         uuid.UUID
}

// QuoteRepositoryInterface is the persistence contract for quotes and their approvals.
type QuoteRepositoryInterface interface {
	Create(ctx context.Context, quote *models.Quote) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	List(ctx context.Context, filter QuoteFilter) ([]models.Quote, int64, error)
	UpdateDraftFields(ctx context.Context, id uuid.UUID, validUntil *time.Time, notes string) error
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.QuoteStatus) error
	UpsertApproval(ctx context.Context, approval *models.QuoteApproval) error
	ListApprovals(ctx context.Context, quoteID uuid.UUID) ([]models.QuoteApproval, error)
	FindExpired(ctx context.Context, statuses []models.QuoteStatus, before time.Time, after *ExpiryCursor, limit int) ([]models.Quote, error)
	WithTransaction(ctx context.Context, fn func(txRepo QuoteRepositoryInterface) error) error
}

// QuoteRepository handles database operations for quotes
type QuoteRepository struct {
	db *gorm.DB
}

var _ QuoteRepositoryInterface = (*QuoteRepository)(nil)

// NewQuoteRepository creates a new QuoteRepository
func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// Create inserts the quote with its items.
func (r *QuoteRepository) Create(ctx context.Context, quote *models.Quote) error {
	return translate(r.db.WithContext(ctx).Omit("Customer", "Approvals").Create(quote).Error)
}

func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Customer").
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, translate(err)
	}
	return &quote, nil
}

func (r *QuoteRepository) List(ctx context.Context, filter QuoteFilter) ([]models.Quote, int64, error) {
	var quotes []models.Quote
	var total int64
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Quote{})
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.ServiceID != nil {
		query = query.Where("service_id = ?", *filter.ServiceID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(number) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Customer").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&quotes).Error

	return quotes, total, err
}

// UpdateDraftFields edits the non-monetary fields of a quote still in DRAFT.
func (r *QuoteRepository) UpdateDraftFields(ctx context.Context, id uuid.UUID, validUntil *time.Time, notes string) error {
	result := r.db.WithContext(ctx).Model(&models.Quote{}).
		Where("id = ? AND status = ?", id, models.QuoteStatusDraft).
		Updates(map[string]interface{}{
			"valid_until": validUntil,
			"notes":       notes,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// TransitionStatus moves a quote from one status to another only if it is
// still in from. Of two concurrent callers at most one sees success; the
// other gets ErrStatusConflict.
func (r *QuoteRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.QuoteStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Quote{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// UpsertApproval writes the approval row for (quote, level), replacing the
// decision fields when the level was already reached once.
func (r *QuoteRepository) UpsertApproval(ctx context.Context, approval *models.QuoteApproval) error {
	approval.UpdatedAt = time.Now()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "quote_id"}, {Name: "approval_level"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"approver_id", "status", "comments", "approved_at", "rejected_at", "updated_at",
		}),
	}).Create(approval).Error
	return translate(err)
}

func (r *QuoteRepository) ListApprovals(ctx context.Context, quoteID uuid.UUID) ([]models.QuoteApproval, error) {
	var approvals []models.QuoteApproval
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at").
		Find(&approvals).Error
	return approvals, err
}

// FindExpired returns quotes in one of statuses whose validity ended before
// the given day, ordered by (valid_until, id) and starting after the cursor.
func (r *QuoteRepository) FindExpired(ctx context.Context, statuses []models.QuoteStatus, before time.Time, after *ExpiryCursor, limit int) ([]models.Quote, error) {
	query := r.db.WithContext(ctx).
		Where("status IN ? AND valid_until IS NOT NULL AND valid_until < ?", statuses, before)
	if after != nil {
		query = query.Where("(valid_until, id) > (?, ?)", after.ValidUntil, after.ID)
	}

	var quotes []models.Quote
	err := query.Order("valid_until, id").Limit(limit).Find(&quotes).Error
	return quotes, err
}

// WithTransaction runs fn against a repository bound to one transaction.
func (r *QuoteRepository) WithTransaction(ctx context.Context, fn func(txRepo QuoteRepositoryInterface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&QuoteRepository{db: tx})
	})
}
