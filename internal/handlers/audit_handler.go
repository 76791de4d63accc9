package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"erp-service/internal/apperrors"
	"erp-service/internal/repository"
)

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	service AuditService
	logger  *logrus.Entry
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service AuditService, logger *logrus.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.WithField("component", "audit_handler"),
	}
}

const dateLayout = "2006-01-02"

type auditListQuery struct {
	UserID     string `form:"userId"`
	Resource   string `form:"resource"`
	ResourceID string `form:"resourceId"`
	Action     string `form:"action"`
	From       string `form:"from"`
	To         string `form:"to"`
	pageQuery
}

// ListAuditLogs searches the audit trail
// @Summary List audit logs
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param userId query string false "Actor user ID"
// @Param resource query string false "Resource type"
// @Param resourceId query string false "Resource ID"
// @Param action query string false "Action"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD), inclusive"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Response
// @Router /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var q auditListQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, h.logger, err)
		return
	}

	filter := repository.AuditFilter{
		Resource: strings.TrimSpace(q.Resource),
		Action:   strings.ToUpper(strings.TrimSpace(q.Action)),
		Page:     q.page(),
	}
	var err error
	if filter.UserID, err = parseOptionalUUID("userId", q.UserID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if filter.ResourceID, err = parseOptionalUUID("resourceId", q.ResourceID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if q.From != "" {
		from, err := time.Parse(dateLayout, q.From)
		if err != nil {
			respondError(c, h.logger, apperrors.Validation("Invalid query parameters", "from must be YYYY-MM-DD"))
			return
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := time.Parse(dateLayout, q.To)
		if err != nil {
			respondError(c, h.logger, apperrors.Validation("Invalid query parameters", "to must be YYYY-MM-DD"))
			return
		}
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.To = &end
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, result)
}
