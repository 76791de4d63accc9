package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"erp-service/internal/audit"
	"erp-service/internal/models"
	"erp-service/internal/rbac"
	"erp-service/internal/services"
)

// InvoiceHandler handles invoices and their payments.
type InvoiceHandler struct {
	service  InvoiceService
	recorder *audit.Recorder
	logger   *logrus.Entry
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(service InvoiceService, recorder *audit.Recorder, logger *logrus.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		service:  service,
		recorder: recorder,
		logger:   logger.WithField("component", "invoice_handler"),
	}
}

// CreateFromQuote issues the invoice of an approved quote
// @Summary Create invoice from quote
// @Tags Invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quoteId path string true "Quote ID"
// @Param request body services.CreateInvoiceInput false "Options"
// @Success 201 {object} models.Response{data=models.Invoice}
// @Failure 400 {object} models.Response
// @Failure 409 {object} models.Response
// @Router /invoices/from-quote/{quoteId} [post]
func (h *InvoiceHandler) CreateFromQuote(c *gin.Context) {
	quoteID, err := parseID(c, "quoteId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var input services.CreateInvoiceInput
	if err := bindOptionalJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	invoice, err := h.service.CreateFromQuote(c.Request.Context(), principal(c), quoteID, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	record(c, h.recorder, models.AuditActionCreateFromQuote, models.ResourceInvoice, &invoice.ID, map[string]interface{}{
		"number":  invoice.Number,
		"quoteId": quoteID,
	})
	respondMessage(c, http.StatusCreated, "Invoice created successfully", invoice)
}

// ListInvoices lists the invoices visible to the caller
// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status"
// @Param customerId query string false "Customer ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Response
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var q struct {
		Status     string `form:"status"`
		CustomerID string `form:"customerId"`
		pageQuery
	}
	if err := bindQuery(c, &q); err != nil {
		respondError(c, h.logger, err)
		return
	}
	customerID, err := parseOptionalUUID("customerId", q.CustomerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	result, err := h.service.List(c.Request.Context(), principal(c), services.InvoiceListParams{
		Status:     q.Status,
		CustomerID: customerID,
		Page:       q.page(),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, result)
}

// GetInvoice returns an invoice with items and payments
// @Summary Get invoice
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} models.Response{data=models.Invoice}
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	invoice, err := h.service.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, invoice)
}

// SendInvoice marks a DRAFT invoice as sent
// @Summary Send invoice
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} models.Response{data=models.Invoice}
// @Router /invoices/{id}/send [post]
func (h *InvoiceHandler) SendInvoice(c *gin.Context) {
	h.changeStatus(c, models.AuditActionSend, h.service.Send)
}

// CancelInvoice voids an unpaid invoice
// @Summary Cancel invoice
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} models.Response{data=models.Invoice}
// @Router /invoices/{id}/cancel [post]
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	h.changeStatus(c, models.AuditActionCancel, h.service.Cancel)
}

// RecordPayment adds a payment to a SENT or PARTIALLY_PAID invoice
// @Summary Record payment
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Param request body services.RecordPaymentInput true "Payment"
// @Success 201 {object} models.Response{data=models.Payment}
// @Failure 400 {object} models.Response
// @Router /invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var input services.RecordPaymentInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	payment, err := h.service.RecordPayment(c.Request.Context(), principal(c), id, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	record(c, h.recorder, models.AuditActionRecordPayment, models.ResourcePayment, &payment.ID, map[string]interface{}{
		"invoiceId": id,
		"amount":    payment.Amount,
		"method":    payment.Method,
	})
	respondMessage(c, http.StatusCreated, "Payment recorded successfully", payment)
}

// ListPayments returns the payments of an invoice
// @Summary List payments
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} models.Response{data=[]models.Payment}
// @Router /invoices/{id}/payments [get]
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	payments, err := h.service.ListPayments(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, payments)
}

func (h *InvoiceHandler) changeStatus(c *gin.Context, action string, fn func(context.Context, rbac.Principal, uuid.UUID) (*models.Invoice, error)) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	invoice, err := fn(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	record(c, h.recorder, action, models.ResourceInvoice, &invoice.ID, map[string]interface{}{
		"number": invoice.Number,
		"status": invoice.Status,
	})
	respond(c, http.StatusOK, invoice)
}
