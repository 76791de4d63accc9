package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-service/internal/apperrors"
	"erp-service/internal/models"
	"erp-service/internal/rbac"
)

func newInvoiceFixture(t *testing.T, status models.InvoiceStatus, total float64) (*InvoiceService, *memInvoiceRepository, *models.Invoice) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	invoices := newMemInvoiceRepository()
	svc := NewInvoiceService(invoices, newMemQuoteRepository(), new(MockSequenceRepository), logger)
	svc.now = func() time.Time { return fixedNow }

	inv := &models.Invoice{
		ID:         uuid.New(),
		Number:     "FAC-2025-001",
		CustomerID: uuid.New(),
		TotalTTC:   total,
		Status:     status,
	}
	require.NoError(t, invoices.Create(context.Background(), inv))
	return svc, invoices, inv
}

func TestRecordPaymentMovesThroughPartialToPaid(t *testing.T) {
	svc, _, inv := newInvoiceFixture(t, models.InvoiceStatusSent, 118)
	accountant := newUser(rbac.RoleAccountant, nil).Principal()
	ctx := context.Background()

	p, err := svc.RecordPayment(ctx, accountant, inv.ID, RecordPaymentInput{Amount: 18, Method: models.PaymentMethodCash})
	require.NoError(t, err)
	assert.Equal(t, accountant.UserID, p.RecordedBy)

	got, err := svc.Get(ctx, accountant, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPartiallyPaid, got.Status)
	assert.InDelta(t, 100, got.Balance(), 1e-9)

	_, err = svc.RecordPayment(ctx, accountant, inv.ID, RecordPaymentInput{Amount: 100.01, Method: models.PaymentMethodBankTransfer})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	paidAt := "2025-03-02"
	_, err = svc.RecordPayment(ctx, accountant, inv.ID, RecordPaymentInput{Amount: 100, Method: models.PaymentMethodBankTransfer, PaidAt: &paidAt})
	require.NoError(t, err)

	got, _ = svc.Get(ctx, accountant, inv.ID)
	assert.Equal(t, models.InvoiceStatusPaid, got.Status)

	payments, err := svc.ListPayments(ctx, accountant, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	_, err = svc.RecordPayment(ctx, accountant, inv.ID, RecordPaymentInput{Amount: 1, Method: models.PaymentMethodCash})
	assert.Equal(t, apperrors.KindPreconditionFailed, apperrors.KindOf(err))
}

func TestRecordPaymentValidatesInput(t *testing.T) {
	svc, _, inv := newInvoiceFixture(t, models.InvoiceStatusSent, 50)
	accountant := newUser(rbac.RoleAccountant, nil).Principal()

	_, err := svc.RecordPayment(context.Background(), accountant, inv.ID, RecordPaymentInput{Amount: -5, Method: "BARTER"})
	require.Error(t, err)
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Len(t, appErr.Errors, 2)
}

func TestPaymentOnDraftInvoiceIsRejected(t *testing.T) {
	svc, _, inv := newInvoiceFixture(t, models.InvoiceStatusDraft, 50)
	accountant := newUser(rbac.RoleAccountant, nil).Principal()

	_, err := svc.RecordPayment(context.Background(), accountant, inv.ID, RecordPaymentInput{Amount: 5, Method: models.PaymentMethodCash})
	assert.Equal(t, apperrors.KindPreconditionFailed, apperrors.KindOf(err))
}

func TestSendAndCancel(t *testing.T) {
	svc, invoices, inv := newInvoiceFixture(t, models.InvoiceStatusDraft, 50)
	accountant := newUser(rbac.RoleAccountant, nil).Principal()
	ctx := context.Background()

	sent, err := svc.Send(ctx, accountant, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusSent, sent.Status)

	_, err = svc.Send(ctx, accountant, inv.ID)
	assert.Equal(t, apperrors.KindPreconditionFailed, apperrors.KindOf(err))

	_, err = svc.RecordPayment(ctx, accountant, inv.ID, RecordPaymentInput{Amount: 10, Method: models.PaymentMethodCard})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, accountant, inv.ID)
	assert.Equal(t, apperrors.KindPreconditionFailed, apperrors.KindOf(err))

	fresh := &models.Invoice{ID: uuid.New(), Number: "FAC-2025-002", Status: models.InvoiceStatusSent, TotalTTC: 10}
	require.NoError(t, invoices.Create(ctx, fresh))
	cancelled, err := svc.Cancel(ctx, accountant, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusCancelled, cancelled.Status)
}

func TestInvoiceScopedToService(t *testing.T) {
	svc, invoices, _ := newInvoiceFixture(t, models.InvoiceStatusDraft, 50)
	serviceA, serviceB := uuid.New(), uuid.New()
	inv := &models.Invoice{ID: uuid.New(), Number: "FAC-2025-003", ServiceID: &serviceA, Status: models.InvoiceStatusDraft}
	require.NoError(t, invoices.Create(context.Background(), inv))

	outsider := newUser(rbac.RoleEmployee, &serviceB).Principal()
	_, err := svc.Get(context.Background(), outsider, inv.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	insider := newUser(rbac.RoleEmployee, &serviceA).Principal()
	_, err = svc.Get(context.Background(), insider, inv.ID)
	assert.NoError(t, err)
}

func TestInvoiceListForPrincipalWithoutService(t *testing.T) {
	svc, invoices, unassigned := newInvoiceFixture(t, models.InvoiceStatusDraft, 50)
	ctx := context.Background()
	serviceA := uuid.New()
	scoped := &models.Invoice{ID: uuid.New(), Number: "FAC-2025-004", ServiceID: &serviceA, Status: models.InvoiceStatusDraft}
	require.NoError(t, invoices.Create(ctx, scoped))

	// An employee granted invoices.read through an override, with no service.
	reader := newUser(rbac.RoleEmployee, nil).Principal()
	reader.Permissions = rbac.NewPermissionSet(rbac.PermInvoicesRead)

	res, err := svc.List(ctx, reader, InvoiceListParams{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, unassigned.ID, res.Items[0].ID)

	_, err = svc.Get(ctx, reader, scoped.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	member := newUser(rbac.RoleEmployee, &serviceA).Principal()
	res, err = svc.List(ctx, member, InvoiceListParams{})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
}
