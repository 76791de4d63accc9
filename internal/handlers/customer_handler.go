package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"erp-service/internal/audit"
	"erp-service/internal/models"
	"erp-service/internal/services"
)

// CustomerHandler handles customer records.
type CustomerHandler struct {
	service  CustomerService
	recorder *audit.Recorder
	logger   *logrus.Entry
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(service CustomerService, recorder *audit.Recorder, logger *logrus.Logger) *CustomerHandler {
	return &CustomerHandler{
		service:  service,
		recorder: recorder,
		logger:   logger.WithField("component", "customer_handler"),
	}
}

// ListCustomers lists the customers visible to the caller
// @Summary List customers
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name, email or number"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Response
// @Router /customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	var q struct {
		Search string `form:"search"`
		pageQuery
	}
	if err := bindQuery(c, &q); err != nil {
		respondError(c, h.logger, err)
		return
	}
	result, err := h.service.List(c.Request.Context(), principal(c), q.Search, q.page())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, result)
}

// GetCustomer returns one customer
// @Summary Get customer
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Success 200 {object} models.Response{data=models.Customer}
// @Failure 404 {object} models.Response
// @Router /customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	customer, err := h.service.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, customer)
}

// CreateCustomer creates a customer in the caller's service
// @Summary Create customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.CustomerInput true "Customer"
// @Success 201 {object} models.Response{data=models.Customer}
// @Router /customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var input services.CustomerInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	customer, err := h.service.Create(c.Request.Context(), principal(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	record(c, h.recorder, models.AuditActionCreate, models.ResourceCustomer, &customer.ID, map[string]interface{}{
		"number": customer.Number,
	})
	respondMessage(c, http.StatusCreated, "Customer created successfully", customer)
}

// UpdateCustomer edits a customer
// @Summary Update customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Param request body services.CustomerInput true "Customer"
// @Success 200 {object} models.Response{data=models.Customer}
// @Router /customers/{id} [put]
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var input services.CustomerInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	customer, err := h.service.Update(c.Request.Context(), principal(c), id, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	record(c, h.recorder, models.AuditActionUpdate, models.ResourceCustomer, &customer.ID, nil)
	respond(c, http.StatusOK, customer)
}
