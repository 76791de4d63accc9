package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"erp-service/internal/audit"
	"erp-service/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves spreadsheet exports.
type ReportHandler struct {
	service  ReportService
	recorder *audit.Recorder
	logger   *logrus.Entry
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service ReportService, recorder *audit.Recorder, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{
		service:  service,
		recorder: recorder,
		logger:   logger.WithField("component", "report_handler"),
	}
}

// ExportQuotes downloads the visible quotes as an Excel workbook
// @Summary Export quotes
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param status query string false "Status"
// @Success 200 {file} binary
// @Router /reports/quotes.xlsx [get]
func (h *ReportHandler) ExportQuotes(c *gin.Context) {
	status := c.Query("status")
	data, count, err := h.service.QuotesWorkbook(c.Request.Context(), principal(c), status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	record(c, h.recorder, models.AuditActionExport, models.ResourceReport, nil, map[string]interface{}{
		"report": "quotes",
		"status": status,
		"rows":   count,
	})

	filename := fmt.Sprintf("quotes-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
