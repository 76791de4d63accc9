package services

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"erp-service/internal/models"
	"erp-service/internal/notify"
	"erp-service/internal/rbac"
	"erp-service/internal/repository"
)

// memQuoteRepository keeps quotes in memory. Transactions are serialized and
// the status update is conditional, like the SQL implementation.
type memQuoteRepository struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	quotes    map[uuid.UUID]*models.Quote
	approvals map[uuid.UUID][]models.QuoteApproval

	// failTransition makes TransitionStatus fail for the listed quotes.
	failTransition map[uuid.UUID]error
}

var _ repository.QuoteRepositoryInterface = (*memQuoteRepository)(nil)

func newMemQuoteRepository() *memQuoteRepository {
	return &memQuoteRepository{
		quotes:         map[uuid.UUID]*models.Quote{},
		approvals:      map[uuid.UUID][]models.QuoteApproval{},
		failTransition: map[uuid.UUID]error{},
	}
}

func (r *memQuoteRepository) snapshot(q *models.Quote) *models.Quote {
	cp := *q
	cp.Items = append([]models.QuoteItem(nil), q.Items...)
	cp.Approvals = append([]models.QuoteApproval(nil), r.approvals[q.ID]...)
	return &cp
}

func (r *memQuoteRepository) Create(_ context.Context, quote *models.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.quotes {
		if existing.Number == quote.Number {
			return repository.ErrDuplicate
		}
	}
	cp := *quote
	cp.Items = append([]models.QuoteItem(nil), quote.Items...)
	cp.Customer = nil
	r.quotes[quote.ID] = &cp
	return nil
}

func (r *memQuoteRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.snapshot(q), nil
}

func (r *memQuoteRepository) List(_ context.Context, filter repository.QuoteFilter) ([]models.Quote, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Quote
	for _, q := range r.quotes {
		if filter.CreatedBy != nil && q.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.ServiceID != nil && (q.ServiceID == nil || *q.ServiceID != *filter.ServiceID) {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				match = match || st == q.Status
			}
			if !match {
				continue
			}
		}
		out = append(out, *r.snapshot(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	total := int64(len(out))
	page := filter.Page.Normalize()
	if page.Offset >= len(out) {
		return nil, total, nil
	}
	end := page.Offset + page.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[page.Offset:end], total, nil
}

func (r *memQuoteRepository) UpdateDraftFields(_ context.Context, id uuid.UUID, validUntil *time.Time, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok || q.Status != models.QuoteStatusDraft {
		return repository.ErrStatusConflict
	}
	q.ValidUntil = validUntil
	q.Notes = notes
	q.Version++
	return nil
}

func (r *memQuoteRepository) TransitionStatus(_ context.Context, id uuid.UUID, from, to models.QuoteStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failTransition[id]; err != nil {
		return err
	}
	q, ok := r.quotes[id]
	if !ok || q.Status != from {
		return repository.ErrStatusConflict
	}
	q.Status = to
	q.Version++
	return nil
}

func (r *memQuoteRepository) UpsertApproval(_ context.Context, approval *models.QuoteApproval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.approvals[approval.QuoteID]
	for i := range rows {
		if rows[i].ApprovalLevel == approval.ApprovalLevel {
			rows[i].ApproverID = approval.ApproverID
			rows[i].Status = approval.Status
			rows[i].Comments = approval.Comments
			rows[i].ApprovedAt = approval.ApprovedAt
			rows[i].RejectedAt = approval.RejectedAt
			return nil
		}
	}
	r.approvals[approval.QuoteID] = append(rows, *approval)
	return nil
}

func (r *memQuoteRepository) ListApprovals(_ context.Context, quoteID uuid.UUID) ([]models.QuoteApproval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.QuoteApproval(nil), r.approvals[quoteID]...), nil
}

func (r *memQuoteRepository) FindExpired(_ context.Context, statuses []models.QuoteStatus, before time.Time, after *repository.ExpiryCursor, limit int) ([]models.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Quote
	for _, q := range r.quotes {
		if q.ValidUntil == nil || !q.ValidUntil.Before(before) {
			continue
		}
		if after != nil && !expiryAfter(*q.ValidUntil, q.ID, *after) {
			continue
		}
		for _, st := range statuses {
			if q.Status == st {
				out = append(out, *r.snapshot(q))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return expiryAfter(*out[j].ValidUntil, out[j].ID, repository.ExpiryCursor{ValidUntil: *out[i].ValidUntil, ID: out[i].ID})
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func expiryAfter(validUntil time.Time, id uuid.UUID, c repository.ExpiryCursor) bool {
	if !validUntil.Equal(c.ValidUntil) {
		return validUntil.After(c.ValidUntil)
	}
	return bytes.Compare(id[:], c.ID[:]) > 0
}

func (r *memQuoteRepository) WithTransaction(_ context.Context, fn func(txRepo repository.QuoteRepositoryInterface) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(r)
}

func (r *memQuoteRepository) put(q *models.Quote) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes[q.ID] = q
}

// memInvoiceRepository enforces the one-invoice-per-quote unique index.
type memInvoiceRepository struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*models.Invoice
	payments map[uuid.UUID][]models.Payment
}

var _ repository.InvoiceRepositoryInterface = (*memInvoiceRepository)(nil)

func newMemInvoiceRepository() *memInvoiceRepository {
	return &memInvoiceRepository{
		invoices: map[uuid.UUID]*models.Invoice{},
		payments: map[uuid.UUID][]models.Payment{},
	}
}

func (r *memInvoiceRepository) Create(_ context.Context, invoice *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.invoices {
		if invoice.QuoteID != nil && existing.QuoteID != nil && *existing.QuoteID == *invoice.QuoteID {
			return repository.ErrDuplicate
		}
		if existing.Number == invoice.Number {
			return repository.ErrDuplicate
		}
	}
	cp := *invoice
	r.invoices[invoice.ID] = &cp
	return nil
}

func (r *memInvoiceRepository) get(id uuid.UUID) (*models.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *inv
	cp.Payments = append([]models.Payment(nil), r.payments[id]...)
	return &cp, nil
}

func (r *memInvoiceRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

func (r *memInvoiceRepository) GetByQuoteID(_ context.Context, quoteID uuid.UUID) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, inv := range r.invoices {
		if inv.QuoteID != nil && *inv.QuoteID == quoteID {
			return r.get(id)
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memInvoiceRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *memInvoiceRepository) List(_ context.Context, filter repository.InvoiceFilter) ([]models.Invoice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Invoice
	for _, inv := range r.invoices {
		if filter.SharedOnly && inv.ServiceID != nil {
			continue
		}
		if filter.ServiceID != nil && inv.ServiceID != nil && *inv.ServiceID != *filter.ServiceID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, int64(len(out)), nil
}

func (r *memInvoiceRepository) UpdateStatus(_ context.Context, id uuid.UUID, from []models.InvoiceStatus, to models.InvoiceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return repository.ErrStatusConflict
	}
	for _, st := range from {
		if inv.Status == st {
			inv.Status = to
			return nil
		}
	}
	return repository.ErrStatusConflict
}

func (r *memInvoiceRepository) ApplyPayment(_ context.Context, payment *models.Payment, amountPaid float64, status models.InvoiceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv := r.invoices[payment.InvoiceID]
	inv.AmountPaid = amountPaid
	inv.Status = status
	r.payments[payment.InvoiceID] = append(r.payments[payment.InvoiceID], *payment)
	return nil
}

func (r *memInvoiceRepository) ListPayments(_ context.Context, invoiceID uuid.UUID) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Payment(nil), r.payments[invoiceID]...), nil
}

func (r *memInvoiceRepository) WithTransaction(_ context.Context, fn func(txRepo repository.InvoiceRepositoryInterface) error) error {
	return fn(r)
}

// MockUserRepository is a mock implementation of UserRepositoryInterface
type MockUserRepository struct {
	mock.Mock
}

var _ repository.UserRepositoryInterface = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) SetCustomPermissions(ctx context.Context, id uuid.UUID, perms []string) error {
	return m.Called(ctx, id, perms).Error(0)
}

func (m *MockUserRepository) FindActiveApprover(ctx context.Context, role rbac.Role, serviceID *uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, role, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

// MockCustomerRepository is a mock implementation of CustomerRepositoryInterface
type MockCustomerRepository struct {
	mock.Mock
}

var _ repository.CustomerRepositoryInterface = (*MockCustomerRepository)(nil)

func (m *MockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, filter repository.CustomerFilter) ([]models.Customer, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

// MockSequenceRepository is a mock implementation of SequenceRepositoryInterface
type MockSequenceRepository struct {
	mock.Mock
}

var _ repository.SequenceRepositoryInterface = (*MockSequenceRepository)(nil)

func (m *MockSequenceRepository) Next(ctx context.Context, entity string, year int) (int, error) {
	args := m.Called(ctx, entity, year)
	return args.Int(0), args.Error(1)
}

// recordingNotifier collects dispatched notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) all() []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Notification(nil), n.sent...)
}

// mapCache is an in-memory quoteCache that round-trips values through JSON
// like the redis cache does.
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    []string
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}}
}

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	c.sets = append(c.sets, key)
	return nil
}

func (c *mapCache) setKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sets...)
}
