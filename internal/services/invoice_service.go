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

const (
	defaultPaymentTerms = 30 * 24 * time.Hour
	moneyEpsilon        = 0.005
)

var (
	ErrInvoiceNotFound          = apperrors.NotFound("Invoice not found")
	ErrInvoiceAlreadyExists     = apperrors.Conflict("An invoice already exists for this quote")
	ErrQuoteNotInvoiceable      = apperrors.PreconditionFailed("Only quotes approved by the general director can be invoiced")
	ErrInvoiceNotSendable       = apperrors.PreconditionFailed("Only DRAFT invoices can be sent")
	ErrInvoiceNotCancellable    = apperrors.PreconditionFailed("Only unpaid DRAFT or SENT invoices can be cancelled")
	ErrInvoiceNotPayable        = apperrors.PreconditionFailed("Payments can only be recorded on SENT or PARTIALLY_PAID invoices")
	ErrInvoiceNumberUnavailable = apperrors.Conflict("Invoice number already taken, retry the request")
)

// CreateInvoiceInput is the optional body of POST /invoices/from-quote/:quoteId.
type CreateInvoiceInput struct {
	DueDate *string `json:"dueDate,omitempty"`
	Notes   string  `json:"notes,omitempty"`
}

// RecordPaymentInput is the body of POST /invoices/:id/payments.
type RecordPaymentInput struct {
	Amount    float64              `json:"amount" binding:"required"`
	Method    models.PaymentMethod `json:"method" binding:"required"`
	Reference string               `json:"reference,omitempty"`
	PaidAt    *string              `json:"paidAt,omitempty"`
}

// InvoiceListParams are the query filters of GET /invoices.
type InvoiceListParams struct {
	Status     string
	CustomerID *uuid.UUID
	repository.Page
}

// InvoiceService turns approved quotes into invoices and records payments.
type InvoiceService struct {
	invoices  repository.InvoiceRepositoryInterface
	quotes    repository.QuoteRepositoryInterface
	sequences repository.SequenceRepositoryInterface
	logger    *logrus.Entry
	now       func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoices repository.InvoiceRepositoryInterface,
	quotes repository.QuoteRepositoryInterface,
	sequences repository.SequenceRepositoryInterface,
	logger *logrus.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices:  invoices,
		quotes:    quotes,
		sequences: sequences,
		logger:    logger.WithField("component", "invoice_service"),
		now:       time.Now,
	}
}

// CreateFromQuote issues the single invoice of an APPROVED_BY_DG quote. The
// quote status is left unchanged.
func (s *InvoiceService) CreateFromQuote(ctx context.Context, p rbac.Principal, quoteID uuid.UUID, input CreateInvoiceInput) (*models.Invoice, error) {
	quote, err := s.quotes.GetByID(ctx, quoteID)
	if err != nil {
		return nil, notFoundOr(err, "Quote not found")
	}
	if !QuoteVisible(p, quote) {
		return nil, ErrQuoteNotFound
	}

	if _, err := s.invoices.GetByQuoteID(ctx, quoteID); err == nil {
		return nil, ErrInvoiceAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	if quote.Status != models.QuoteStatusApprovedByDG {
		return nil, ErrQuoteNotInvoiceable
	}

	issueDate := truncateDay(s.now())
	dueDate := issueDate.Add(defaultPaymentTerms)
	if input.DueDate != nil && strings.TrimSpace(*input.DueDate) != "" {
		if dueDate, err = parseDate("dueDate", *input.DueDate); err != nil {
			return nil, err
		}
		if dueDate.Before(issueDate) {
			return nil, apperrors.Validation("Validation failed", "dueDate must not be before the issue date")
		}
	}

	seq, err := s.sequences.Next(ctx, models.SequenceInvoice, issueDate.Year())
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to allocate invoice number: %w", err))
	}

	invoice := &models.Invoice{
		ID:         uuid.New(),
		Number:     formatNumber(models.SequencePrefixes[models.SequenceInvoice], issueDate.Year(), seq),
		QuoteID:    &quote.ID,
		CustomerID: quote.CustomerID,
		ServiceID:  quote.ServiceID,
		CreatedBy:  p.UserID,
		IssueDate:  issueDate,
		DueDate:    dueDate,
		SubtotalHT: quote.SubtotalHT,
		TotalVAT:   quote.TotalVAT,
		TotalTTC:   quote.TotalTTC,
		Status:     models.InvoiceStatusDraft,
		Notes:      input.Notes,
	}
	invoice.Items = make([]models.InvoiceItem, len(quote.Items))
	for i, item := range quote.Items {
		invoice.Items[i] = models.InvoiceItem{
			ID:          uuid.New(),
			InvoiceID:   invoice.ID,
			Position:    item.Position,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			TotalHT:     item.TotalHT,
		}
	}

	if err := s.invoices.Create(ctx, invoice); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost the race against a concurrent conversion, or a number collision.
			if _, lookupErr := s.invoices.GetByQuoteID(ctx, quoteID); lookupErr == nil {
				return nil, ErrInvoiceAlreadyExists
			}
			return nil, ErrInvoiceNumberUnavailable
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id": invoice.ID,
		"number":     invoice.Number,
		"quote_id":   quote.ID,
	}).Info("Invoice created from quote")

	return invoice, nil
}

func invoiceVisible(p rbac.Principal, inv *models.Invoice) bool {
	if p.SeesAllServices() || p.Role == rbac.RoleAccountant {
		return true
	}
	return rbac.Authorize(p, rbac.RequireServiceScope(), inv.ServiceID).Allowed
}

// Get returns an invoice with items and payments.
func (s *InvoiceService) Get(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Invoice not found")
	}
	if !invoiceVisible(p, invoice) {
		return nil, ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *InvoiceService) List(ctx context.Context, p rbac.Principal, params InvoiceListParams) (*ListResult[models.Invoice], error) {
	filter := repository.InvoiceFilter{
		CustomerID: params.CustomerID,
		Page:       params.Page.Normalize(),
	}
	if params.Status != "" {
		filter.Status = models.InvoiceStatus(strings.ToUpper(params.Status))
	}
	if !p.SeesAllServices() && p.Role != rbac.RoleAccountant {
		filter.ServiceID, filter.SharedOnly = listScope(p)
	}

	invoices, total, err := s.invoices.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return newListResult(invoices, total, filter.Page), nil
}

// Send marks a DRAFT invoice as sent to the customer.
func (s *InvoiceService) Send(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Invoice, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	if err := s.invoices.UpdateStatus(ctx, id, []models.InvoiceStatus{models.InvoiceStatusDraft}, models.InvoiceStatusSent); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrInvoiceNotSendable
		}
		return nil, apperrors.Internal(err)
	}
	return s.Get(ctx, p, id)
}

// Cancel voids an invoice that has received no payment.
func (s *InvoiceService) Cancel(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if invoice.AmountPaid > 0 {
		return nil, ErrInvoiceNotCancellable
	}
	from := []models.InvoiceStatus{models.InvoiceStatusDraft, models.InvoiceStatusSent}
	if err := s.invoices.UpdateStatus(ctx, id, from, models.InvoiceStatusCancelled); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrInvoiceNotCancellable
		}
		return nil, apperrors.Internal(err)
	}
	return s.Get(ctx, p, id)
}

// RecordPayment adds a payment and moves the invoice to PARTIALLY_PAID or
// PAID. The invoice row is locked for the duration so concurrent payments
// cannot overpay.
func (s *InvoiceService) RecordPayment(ctx context.Context, p rbac.Principal, invoiceID uuid.UUID, input RecordPaymentInput) (*models.Payment, error) {
	var details []string
	if input.Amount <= 0 {
		details = append(details, "amount must be greater than 0")
	}
	if !input.Method.IsValid() {
		details = append(details, fmt.Sprintf("method %q is not supported", input.Method))
	}
	if len(details) > 0 {
		return nil, apperrors.Validation("Validation failed", details...)
	}

	paidAt := s.now().UTC()
	if input.PaidAt != nil && strings.TrimSpace(*input.PaidAt) != "" {
		d, err := parseDate("paidAt", *input.PaidAt)
		if err != nil {
			return nil, err
		}
		paidAt = d
	}

	if _, err := s.Get(ctx, p, invoiceID); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:         uuid.New(),
		InvoiceID:  invoiceID,
		Amount:     models.RoundMoney(input.Amount),
		Method:     input.Method,
		Reference:  input.Reference,
		PaidAt:     paidAt,
		RecordedBy: p.UserID,
	}

	err := s.invoices.WithTransaction(ctx, func(txRepo repository.InvoiceRepositoryInterface) error {
		invoice, err := txRepo.LockByID(ctx, invoiceID)
		if err != nil {
			return notFoundOr(err, "Invoice not found")
		}
		if invoice.Status != models.InvoiceStatusSent && invoice.Status != models.InvoiceStatusPartiallyPaid {
			return ErrInvoiceNotPayable
		}
		if payment.Amount > invoice.Balance()+moneyEpsilon {
			return apperrors.Validation("Validation failed",
				fmt.Sprintf("amount %.2f exceeds the outstanding balance %.2f", payment.Amount, invoice.Balance()))
		}

		paid := models.RoundMoney(invoice.AmountPaid + payment.Amount)
		status := models.InvoiceStatusPartiallyPaid
		if paid >= invoice.TotalTTC-moneyEpsilon {
			status = models.InvoiceStatusPaid
		}
		return txRepo.ApplyPayment(ctx, payment, paid, status)
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id": invoiceID,
		"payment_id": payment.ID,
		"amount":     payment.Amount,
	}).Info("Payment recorded")

	return payment, nil
}

// ListPayments returns the payments of a visible invoice.
func (s *InvoiceService) ListPayments(ctx context.Context, p rbac.Principal, invoiceID uuid.UUID) ([]models.Payment, error) {
	if _, err := s.Get(ctx, p, invoiceID); err != nil {
		return nil, err
	}
	payments, err := s.invoices.ListPayments(ctx, invoiceID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return payments, nil
}
