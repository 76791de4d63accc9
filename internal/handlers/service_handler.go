package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"erp-service/internal/audit"
	"erp-service/internal/models"
	"erp-service/internal/services"
)

// ServiceHandler handles organizational services.
type ServiceHandler struct {
	service  OrgService
	recorder *audit.Recorder
	logger   *logrus.Entry
}

// NewServiceHandler creates a new ServiceHandler
func NewServiceHandler(service OrgService, recorder *audit.Recorder, logger *logrus.Logger) *ServiceHandler {
	return &ServiceHandler{
		service:  service,
		recorder: recorder,
		logger:   logger.WithField("component", "service_handler"),
	}
}

// ListServices lists organizational services
// @Summary List services
// @Tags Services
// @Produce json
// @Security BearerAuth
// @Param activeOnly query bool false "Only active services"
// @Success 200 {object} models.Response{data=[]models.Service}
// @Router /services [get]
func (h *ServiceHandler) ListServices(c *gin.Context) {
	var q struct {
		ActiveOnly bool `form:"activeOnly"`
	}
	if err := bindQuery(c, &q); err != nil {
		respondError(c, h.logger, err)
		return
	}
	list, err := h.service.List(c.Request.Context(), q.ActiveOnly)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, list)
}

// GetService returns one service
// @Summary Get service
// @Tags Services
// @Produce json
// @Security BearerAuth
// @Param id path string true "Service ID"
// @Success 200 {object} models.Response{data=models.Service}
// @Router /services/{id} [get]
func (h *ServiceHandler) GetService(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	svc, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, svc)
}

// CreateService creates a service
// @Summary Create service
// @Tags Services
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.ServiceInput true "Service"
// @Success 201 {object} models.Response{data=models.Service}
// @Router /services [post]
func (h *ServiceHandler) CreateService(c *gin.Context) {
	var input services.ServiceInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	svc, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	record(c, h.recorder, models.AuditActionCreate, models.ResourceService, &svc.ID, map[string]interface{}{"name": svc.Name})
	respondMessage(c, http.StatusCreated, "Service created successfully", svc)
}

// UpdateService edits a service
// @Summary Update service
// @Tags Services
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Service ID"
// @Param request body services.ServiceInput true "Service"
// @Success 200 {object} models.Response{data=models.Service}
// @Router /services/{id} [put]
func (h *ServiceHandler) UpdateService(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var input services.ServiceInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	svc, err := h.service.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	record(c, h.recorder, models.AuditActionUpdate, models.ResourceService, &svc.ID, nil)
	respond(c, http.StatusOK, svc)
}
