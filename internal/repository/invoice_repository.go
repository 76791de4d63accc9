package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"erp-service/internal/models"
)

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	Status     models.InvoiceStatus
	CustomerID *uuid.UUID
	ServiceID  *uuid.UUID
	// SharedOnly restricts the listing to invoices without a service.
	SharedOnly bool
	Page
}

// InvoiceRepositoryInterface is the persistence contract for invoices and payments.
type InvoiceRepositoryInterface interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	GetByQuoteID(ctx context.Context, quoteID uuid.UUID) (*models.Invoice, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from []models.InvoiceStatus, to models.InvoiceStatus) error
	ApplyPayment(ctx context.Context, payment *models.Payment, amountPaid float64, status models.InvoiceStatus) error
	ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error)
	WithTransaction(ctx context.Context, fn func(txRepo InvoiceRepositoryInterface) error) error
}

// InvoiceRepository handles database operations for invoices
type InvoiceRepository struct {
	db *gorm.DB
}

var _ InvoiceRepositoryInterface = (*InvoiceRepository)(nil)

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts the invoice and its items. A second invoice for the same
// quote violates the unique index and returns ErrDuplicate.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return translate(r.db.WithContext(ctx).Omit("Payments").Create(invoice).Error)
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at") }).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

func (r *InvoiceRepository) GetByQuoteID(ctx context.Context, quoteID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).Where("quote_id = ?", quoteID).First(&invoice).Error; err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

// LockByID reads the invoice row FOR UPDATE. Use inside WithTransaction.
func (r *InvoiceRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

func (r *InvoiceRepository) List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, int64, error) {
	var invoices []models.Invoice
	var total int64
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Invoice{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	switch {
	case filter.SharedOnly:
		query = query.Where("service_id IS NULL")
	case filter.ServiceID != nil:
		query = query.Where("(service_id = ? OR service_id IS NULL)", *filter.ServiceID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&invoices).Error

	return invoices, total, err
}

// UpdateStatus changes the status when the current one is in from.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []models.InvoiceStatus, to models.InvoiceStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
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

// ApplyPayment inserts the payment and stores the new paid amount and status.
func (r *InvoiceRepository) ApplyPayment(ctx context.Context, payment *models.Payment, amountPaid float64, status models.InvoiceStatus) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return translate(err)
	}
	return r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ?", payment.InvoiceID).
		Updates(map[string]interface{}{
			"amount_paid": amountPaid,
			"status":      status,
			"updated_at":  time.Now(),
		}).Error
}

func (r *InvoiceRepository) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("paid_at").
		Find(&payments).Error
	return payments, err
}

// WithTransaction runs fn against a repository bound to one transaction.
func (r *InvoiceRepository) WithTransaction(ctx context.Context, fn func(txRepo InvoiceRepositoryInterface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&InvoiceRepository{db: tx})
	})
}
