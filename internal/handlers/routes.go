package handlers

import (
	"github.com/gin-gonic/gin"

	"erp-service/internal/middleware"
	"erp-service/internal/rbac"
)

// Handlers groups every HTTP handler mounted under /api/v1.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Services      *ServiceHandler
	Customers     *CustomerHandler
	Quotes        *QuoteHandler
	Invoices      *InvoiceHandler
	Notifications *NotificationHandler
	Audit         *AuditHandler
	Reports       *ReportHandler
}

// RegisterRoutes mounts the API. authenticate guards every route except
// login and refresh; loginLimit throttles login attempts.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, authenticate, loginLimit gin.HandlerFunc) {
	perm := middleware.RequirePermission

	public := api.Group("/auth")
	{
		public.POST("/login", loginLimit, h.Auth.Login)
		public.POST("/refresh", loginLimit, h.Auth.Refresh)
	}

	protected := api.Group("")
	protected.Use(authenticate)

	protected.GET("/auth/me", h.Auth.Me)

	// Users and permissions
	{
		protected.GET("/users", perm(rbac.PermUsersRead), h.Users.ListUsers)
		protected.POST("/users", perm(rbac.PermUsersCreate), h.Users.CreateUser)
		protected.GET("/users/:id", perm(rbac.PermUsersRead), h.Users.GetUser)
		protected.PUT("/users/:id", perm(rbac.PermUsersUpdate), h.Users.UpdateUser)
		protected.GET("/users/:id/permissions", perm(rbac.PermUsersRead), h.Users.GetUserPermissions)
		protected.PUT("/users/:id/permissions", perm(rbac.PermUsersManagePermissions), h.Users.SetUserPermissions)
		protected.DELETE("/users/:id/permissions", perm(rbac.PermUsersManagePermissions), h.Users.ResetUserPermissions)
		protected.GET("/permissions", perm(rbac.PermUsersRead), h.Users.PermissionCatalog)
	}

	// Organizational services
	{
		protected.GET("/services", perm(rbac.PermServicesRead), h.Services.ListServices)
		protected.POST("/services", perm(rbac.PermServicesManage), h.Services.CreateService)
		protected.GET("/services/:id", perm(rbac.PermServicesRead), h.Services.GetService)
		protected.PUT("/services/:id", perm(rbac.PermServicesManage), h.Services.UpdateService)
	}

	// Customers
	{
		protected.GET("/customers", perm(rbac.PermCustomersRead), h.Customers.ListCustomers)
		protected.POST("/customers", perm(rbac.PermCustomersCreate), h.Customers.CreateCustomer)
		protected.GET("/customers/:id", perm(rbac.PermCustomersRead), h.Customers.GetCustomer)
		protected.PUT("/customers/:id", perm(rbac.PermCustomersUpdate), h.Customers.UpdateCustomer)
	}

	// Quotes and approval workflow
	quotes := protected.Group("/quotes")
	{
		quotes.GET("", perm(rbac.PermQuotesRead), h.Quotes.ListQuotes)
		quotes.POST("", perm(rbac.PermQuotesCreate), h.Quotes.CreateQuote)
		quotes.GET("/:id", perm(rbac.PermQuotesRead), h.Quotes.GetQuote)
		quotes.PATCH("/:id", perm(rbac.PermQuotesUpdate), h.Quotes.UpdateQuote)
		quotes.GET("/:id/approvals", perm(rbac.PermQuotesRead), h.Quotes.ListApprovals)
		quotes.GET("/:id/pdf", perm(rbac.PermQuotesRead), h.Quotes.DownloadPDF)

		quotes.POST("/:id/submit-for-service-approval", perm(rbac.PermQuotesSubmitForApproval), h.Quotes.SubmitForServiceApproval)
		quotes.POST("/:id/approve-by-service-manager", perm(rbac.PermQuotesApproveService), h.Quotes.ApproveByServiceManager)
		quotes.POST("/:id/approve-by-dg", perm(rbac.PermQuotesApproveDG), h.Quotes.ApproveByDG)
		quotes.POST("/:id/reject", perm(rbac.PermQuotesReject), h.Quotes.Reject)
		quotes.POST("/:id/return-to-draft", perm(rbac.PermQuotesUpdate), h.Quotes.ReturnToDraft)
		quotes.POST("/:id/client-accept", perm(rbac.PermQuotesUpdate), h.Quotes.ClientAccept)
		quotes.POST("/:id/client-reject", perm(rbac.PermQuotesUpdate), h.Quotes.ClientReject)
	}

	// Invoices and payments
	invoices := protected.Group("/invoices")
	{
		invoices.GET("", perm(rbac.PermInvoicesRead), h.Invoices.ListInvoices)
		invoices.POST("/from-quote/:quoteId", perm(rbac.PermInvoicesCreate), h.Invoices.CreateFromQuote)
		invoices.GET("/:id", perm(rbac.PermInvoicesRead), h.Invoices.GetInvoice)
		invoices.POST("/:id/send", perm(rbac.PermInvoicesUpdate), h.Invoices.SendInvoice)
		invoices.POST("/:id/cancel", perm(rbac.PermInvoicesUpdate), h.Invoices.CancelInvoice)
		invoices.GET("/:id/payments", perm(rbac.PermPaymentsRead), h.Invoices.ListPayments)
		invoices.POST("/:id/payments", perm(rbac.PermPaymentsCreate), h.Invoices.RecordPayment)
	}

	// Notifications
	{
		protected.GET("/notifications", perm(rbac.PermNotificationsRead), h.Notifications.ListNotifications)
		protected.POST("/notifications/read-all", perm(rbac.PermNotificationsRead), h.Notifications.MarkAllRead)
		protected.POST("/notifications/:id/read", perm(rbac.PermNotificationsRead), h.Notifications.MarkRead)
	}

	protected.GET("/audit-logs", perm(rbac.PermAuditRead), h.Audit.ListAuditLogs)
	protected.GET("/reports/quotes.xlsx", perm(rbac.PermReportsExport), h.Reports.ExportQuotes)
}
