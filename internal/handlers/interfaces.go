package handlers

import (
	"context"

	"github.com/google/uuid"

	"erp-service/internal/auth"
	"erp-service/internal/models"
	"erp-service/internal/rbac"
	"erp-service/internal/repository"
	"erp-service/internal/services"
)

// The handler dependencies below are implemented by the types in
// internal/services.

type AuthService interface {
	Login(ctx context.Context, input services.LoginInput) (*services.LoginResult, error)
	Refresh(ctx context.Context, input services.RefreshInput) (*auth.TokenPair, error)
	Me(ctx context.Context, p rbac.Principal) (*models.User, error)
}

type UserService interface {
	List(ctx context.Context, role, search string, serviceID *uuid.UUID, page repository.Page) (*services.ListResult[models.User], error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, input services.CreateUserInput) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, input services.UpdateUserInput) (*models.User, error)
	SetPermissions(ctx context.Context, id uuid.UUID, input services.SetPermissionsInput) (*services.UserPermissions, error)
	ResetPermissions(ctx context.Context, id uuid.UUID) (*services.UserPermissions, error)
	Permissions(ctx context.Context, id uuid.UUID) (*services.UserPermissions, error)
	Catalog() services.PermissionCatalog
}

type OrgService interface {
	List(ctx context.Context, activeOnly bool) ([]models.Service, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Service, error)
	Create(ctx context.Context, input services.ServiceInput) (*models.Service, error)
	Update(ctx context.Context, id uuid.UUID, input services.ServiceInput) (*models.Service, error)
}

type CustomerService interface {
	Create(ctx context.Context, p rbac.Principal, input services.CustomerInput) (*models.Customer, error)
	Get(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, p rbac.Principal, search string, page repository.Page) (*services.ListResult[models.Customer], error)
	Update(ctx context.Context, p rbac.Principal, id uuid.UUID, input services.CustomerInput) (*models.Customer, error)
}

type QuoteService interface {
	Create(ctx context.Context, p rbac.Principal, input services.CreateQuoteInput) (*models.Quote, error)
	Get(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error)
	List(ctx context.Context, p rbac.Principal, params services.QuoteListParams) (*services.ListResult[models.Quote], error)
	UpdateDraft(ctx context.Context, p rbac.Principal, id uuid.UUID, input services.UpdateQuoteInput) (*models.Quote, error)
	SubmitForServiceApproval(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error)
	ApproveByServiceManager(ctx context.Context, p rbac.Principal, id uuid.UUID, input services.DecisionInput) (*models.Quote, error)
	ApproveByDG(ctx context.Context, p rbac.Principal, id uuid.UUID, input services.DecisionInput) (*models.Quote, error)
	Reject(ctx context.Context, p rbac.Principal, id uuid.UUID, input services.DecisionInput) (*models.Quote, error)
	ReturnToDraft(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error)
	ClientAccept(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error)
	ClientReject(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error)
	ListApprovals(ctx context.Context, p rbac.Principal, id uuid.UUID) ([]models.QuoteApproval, error)
}

type InvoiceService interface {
	CreateFromQuote(ctx context.Context, p rbac.Principal, quoteID uuid.UUID, input services.CreateInvoiceInput) (*models.Invoice, error)
	Get(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, p rbac.Principal, params services.InvoiceListParams) (*services.ListResult[models.Invoice], error)
	Send(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Invoice, error)
	Cancel(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Invoice, error)
	RecordPayment(ctx context.Context, p rbac.Principal, invoiceID uuid.UUID, input services.RecordPaymentInput) (*models.Payment, error)
	ListPayments(ctx context.Context, p rbac.Principal, invoiceID uuid.UUID) ([]models.Payment, error)
}

type NotificationService interface {
	List(ctx context.Context, p rbac.Principal, unreadOnly bool, page repository.Page) (*services.NotificationList, error)
	MarkRead(ctx context.Context, p rbac.Principal, id uuid.UUID) error
	MarkAllRead(ctx context.Context, p rbac.Principal) (int64, error)
}

type AuditService interface {
	List(ctx context.Context, filter repository.AuditFilter) (*services.ListResult[models.AuditLog], error)
}

type ReportService interface {
	QuotesWorkbook(ctx context.Context, p rbac.Principal, status string) ([]byte, int, error)
}

var (
	_ AuthService         = (*services.AuthService)(nil)
	_ UserService         = (*services.UserService)(nil)
	_ OrgService          = (*services.OrgService)(nil)
	_ CustomerService     = (*services.CustomerService)(nil)
	_ QuoteService        = (*services.QuoteService)(nil)
	_ InvoiceService      = (*services.InvoiceService)(nil)
	_ NotificationService = (*services.NotificationService)(nil)
	_ AuditService        = (*services.AuditService)(nil)
	_ ReportService       = (*services.ReportService)(nil)
)
