package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"erp-service/internal/audit"
	"erp-service/internal/models"
	"erp-service/internal/rbac"
	"erp-service/internal/services"
)

type (
	quoteAction   func(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error)
	quoteDecision func(ctx context.Context, p rbac.Principal, id uuid.UUID, input services.DecisionInput) (*models.Quote, error)
)

// QuoteHandler handles quotes and their approval workflow.
type QuoteHandler struct {
	service  QuoteService
	recorder *audit.Recorder
	logger   *logrus.Entry
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(service QuoteService, recorder *audit.Recorder, logger *logrus.Logger) *QuoteHandler {
	return &QuoteHandler{
		service:  service,
		recorder: recorder,
		logger:   logger.WithField("component", "quote_handler"),
	}
}

type quoteListQuery struct {
	Status     string `form:"status"`
	CustomerID string `form:"customerId"`
	Search     string `form:"search"`
	pageQuery
}

// CreateQuote creates a DRAFT quote
// @Summary Create quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.CreateQuoteInput true "Quote"
// @Success 201 {object} models.Response{data=models.Quote}
// @Failure 400 {object} models.Response
// @Router /quotes [post]
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var input services.CreateQuoteInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	quote, err := h.service.Create(c.Request.Context(), principal(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	record(c, h.recorder, models.AuditActionCreate, models.ResourceQuote, &quote.ID, map[string]interface{}{
		"number":   quote.Number,
		"totalTtc": quote.TotalTTC,
	})
	respondMessage(c, http.StatusCreated, "Quote created successfully", quote)
}

// ListQuotes lists the quotes visible to the caller
// @Summary List quotes
// @Tags Quotes
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status"
// @Param customerId query string false "Customer ID"
// @Param search query string false "Quote number or notes"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Response
// @Router /quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var q quoteListQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, h.logger, err)
		return
	}
	customerID, err := parseOptionalUUID("customerId", q.CustomerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), principal(c), services.QuoteListParams{
		Status:     q.Status,
		CustomerID: customerID,
		Search:     q.Search,
		Page:       q.page(),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, result)
}

// GetQuote returns a quote with items and approvals
// @Summary Get quote
// @Tags Quotes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Success 200 {object} models.Response{data=models.Quote}
// @Failure 404 {object} models.Response
// @Router /quotes/{id} [get]
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	quote, err := h.service.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, quote)
}

// UpdateQuote edits validUntil and notes of a DRAFT quote
// @Summary Update draft quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Param request body services.UpdateQuoteInput true "Changes"
// @Success 200 {object} models.Response{data=models.Quote}
// @Router /quotes/{id} [patch]
func (h *QuoteHandler) UpdateQuote(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var input services.UpdateQuoteInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	quote, err := h.service.UpdateDraft(c.Request.Context(), principal(c), id, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	record(c, h.recorder, models.AuditActionUpdate, models.ResourceQuote, &quote.ID, nil)
	respond(c, http.StatusOK, quote)
}

// SubmitForServiceApproval sends a DRAFT quote to the service manager
// @Summary Submit quote for service approval
// @Tags Quote workflow
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Success 200 {object} models.Response{data=models.Quote}
// @Failure 400 {object} models.Response
// @Failure 403 {object} models.Response
// @Router /quotes/{id}/submit-for-service-approval [post]
func (h *QuoteHandler) SubmitForServiceApproval(c *gin.Context) {
	h.act(c, models.AuditActionSubmit, h.service.SubmitForServiceApproval)
}

// ApproveByServiceManager forwards the quote to the general director
// @Summary Approve quote as service manager
// @Tags Quote workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Param request body services.DecisionInput false "Comments"
// @Success 200 {object} models.Response{data=models.Quote}
// @Failure 400 {object} models.Response
// @Failure 403 {object} models.Response
// @Router /quotes/{id}/approve-by-service-manager [post]
func (h *QuoteHandler) ApproveByServiceManager(c *gin.Context) {
	h.decide(c, models.AuditActionApproveService, h.service.ApproveByServiceManager)
}

// ApproveByDG gives the final approval
// @Summary Approve quote as general director
// @Tags Quote workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Param request body services.DecisionInput false "Comments"
// @Success 200 {object} models.Response{data=models.Quote}
// @Failure 400 {object} models.Response
// @Failure 403 {object} models.Response
// @Router /quotes/{id}/approve-by-dg [post]
func (h *QuoteHandler) ApproveByDG(c *gin.Context) {
	h.decide(c, models.AuditActionApproveDG, h.service.ApproveByDG)
}

// Reject rejects the quote at its pending approval level
// @Summary Reject quote
// @Tags Quote workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Param request body services.DecisionInput false "Comments"
// @Success 200 {object} models.Response{data=models.Quote}
// @Failure 400 {object} models.Response
// @Failure 403 {object} models.Response
// @Router /quotes/{id}/reject [post]
func (h *QuoteHandler) Reject(c *gin.Context) {
	h.decide(c, models.AuditActionReject, h.service.Reject)
}

// ReturnToDraft reopens a rejected quote for editing
// @Summary Return rejected quote to draft
// @Tags Quote workflow
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Success 200 {object} models.Response{data=models.Quote}
// @Router /quotes/{id}/return-to-draft [post]
func (h *QuoteHandler) ReturnToDraft(c *gin.Context) {
	h.act(c, models.AuditActionReturnToDraft, h.service.ReturnToDraft)
}

// ClientAccept records the customer's acceptance
// @Summary Record client acceptance
// @Tags Quote workflow
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Success 200 {object} models.Response{data=models.Quote}
// @Router /quotes/{id}/client-accept [post]
func (h *QuoteHandler) ClientAccept(c *gin.Context) {
	h.act(c, models.AuditActionClientAccept, h.service.ClientAccept)
}

// ClientReject records the customer's refusal
// @Summary Record client rejection
// @Tags Quote workflow
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Success 200 {object} models.Response{data=models.Quote}
// @Router /quotes/{id}/client-reject [post]
func (h *QuoteHandler) ClientReject(c *gin.Context) {
	h.act(c, models.AuditActionClientReject, h.service.ClientReject)
}

// ListApprovals returns the approval records of a quote
// @Summary List quote approvals
// @Tags Quote workflow
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Success 200 {object} models.Response{data=[]models.QuoteApproval}
// @Router /quotes/{id}/approvals [get]
func (h *QuoteHandler) ListApprovals(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	approvals, err := h.service.ListApprovals(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, approvals)
}

// DownloadPDF renders the quote as a PDF document
// @Summary Download quote PDF
// @Tags Quotes
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Success 200 {file} binary
// @Router /quotes/{id}/pdf [get]
func (h *QuoteHandler) DownloadPDF(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	quote, err := h.service.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	data, err := services.RenderQuotePDF(quote)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, quote.Number))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (h *QuoteHandler) act(c *gin.Context, action string, fn quoteAction) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	quote, err := fn(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	record(c, h.recorder, action, models.ResourceQuote, &quote.ID, map[string]interface{}{
		"number": quote.Number,
		"status": quote.Status,
	})
	respond(c, http.StatusOK, quote)
}

func (h *QuoteHandler) decide(c *gin.Context, action string, fn quoteDecision) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var input services.DecisionInput
	if err := bindOptionalJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	quote, err := fn(c.Request.Context(), principal(c), id, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	details := map[string]interface{}{
		"number": quote.Number,
		"status": quote.Status,
	}
	if input.Comments != "" {
		details["comments"] = input.Comments
	}
	record(c, h.recorder, action, models.ResourceQuote, &quote.ID, details)
	respond(c, http.StatusOK, quote)
}
