package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"erp-service/internal/models"
	"erp-service/internal/rbac"
	"erp-service/internal/repository"
	"erp-service/internal/services"
)

// MockQuoteService is a mock implementation of QuoteService
type MockQuoteService struct {
	mock.Mock
}

var _ QuoteService = (*MockQuoteService)(nil)

func (m *MockQuoteService) quote(args mock.Arguments) (*models.Quote, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quote), args.Error(1)
}

func (m *MockQuoteService) Create(ctx context.Context, p rbac.Principal, input services.CreateQuoteInput) (*models.Quote, error) {
	return m.quote(m.Called(ctx, p, input))
}

func (m *MockQuoteService) Get(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error) {
	return m.quote(m.Called(ctx, p, id))
}

func (m *MockQuoteService) List(ctx context.Context, p rbac.Principal, params services.QuoteListParams) (*services.ListResult[models.Quote], error) {
	args := m.Called(ctx, p, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ListResult[models.Quote]), args.Error(1)
}

func (m *MockQuoteService) UpdateDraft(ctx context.Context, p rbac.Principal, id uuid.UUID, input services.UpdateQuoteInput) (*models.Quote, error) {
	return m.quote(m.Called(ctx, p, id, input))
}

func (m *MockQuoteService) SubmitForServiceApproval(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error) {
	return m.quote(m.Called(ctx, p, id))
}

func (m *MockQuoteService) ApproveByServiceManager(ctx context.Context, p rbac.Principal, id uuid.UUID, input services.DecisionInput) (*models.Quote, error) {
	return m.quote(m.Called(ctx, p, id, input))
}

func (m *MockQuoteService) ApproveByDG(ctx context.Context, p rbac.Principal, id uuid.UUID, input services.DecisionInput) (*models.Quote, error) {
	return m.quote(m.Called(ctx, p, id, input))
}

func (m *MockQuoteService) Reject(ctx context.Context, p rbac.Principal, id uuid.UUID, input services.DecisionInput) (*models.Quote, error) {
	return m.quote(m.Called(ctx, p, id, input))
}

func (m *MockQuoteService) ReturnToDraft(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error) {
	return m.quote(m.Called(ctx, p, id))
}

func (m *MockQuoteService) ClientAccept(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error) {
	return m.quote(m.Called(ctx, p, id))
}

func (m *MockQuoteService) ClientReject(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error) {
	return m.quote(m.Called(ctx, p, id))
}

func (m *MockQuoteService) ListApprovals(ctx context.Context, p rbac.Principal, id uuid.UUID) ([]models.QuoteApproval, error) {
	args := m.Called(ctx, p, id)
	return args.Get(0).([]models.QuoteApproval), args.Error(1)
}

// MockInvoiceService is a mock implementation of InvoiceService
type MockInvoiceService struct {
	mock.Mock
}

var _ InvoiceService = (*MockInvoiceService)(nil)

func (m *MockInvoiceService) invoice(args mock.Arguments) (*models.Invoice, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) CreateFromQuote(ctx context.Context, p rbac.Principal, quoteID uuid.UUID, input services.CreateInvoiceInput) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, p, quoteID, input))
}

func (m *MockInvoiceService) Get(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, p, id))
}

func (m *MockInvoiceService) List(ctx context.Context, p rbac.Principal, params services.InvoiceListParams) (*services.ListResult[models.Invoice], error) {
	args := m.Called(ctx, p, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ListResult[models.Invoice]), args.Error(1)
}

func (m *MockInvoiceService) Send(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, p, id))
}

func (m *MockInvoiceService) Cancel(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, p, id))
}

func (m *MockInvoiceService) RecordPayment(ctx context.Context, p rbac.Principal, invoiceID uuid.UUID, input services.RecordPaymentInput) (*models.Payment, error) {
	args := m.Called(ctx, p, invoiceID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockInvoiceService) ListPayments(ctx context.Context, p rbac.Principal, invoiceID uuid.UUID) ([]models.Payment, error) {
	args := m.Called(ctx, p, invoiceID)
	return args.Get(0).([]models.Payment), args.Error(1)
}

// memAuditRepository collects audit entries written by the recorder.
type memAuditRepository struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

var _ repository.AuditRepositoryInterface = (*memAuditRepository)(nil)

func (r *memAuditRepository) Create(_ context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memAuditRepository) List(_ context.Context, _ repository.AuditFilter) ([]models.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AuditLog(nil), r.entries...), int64(len(r.entries)), nil
}
