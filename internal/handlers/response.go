package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"erp-service/internal/apperrors"
	"erp-service/internal/audit"
	"erp-service/internal/middleware"
	"erp-service/internal/models"
	"erp-service/internal/rbac"
	"erp-service/internal/repository"
)

// pageQuery is the pagination window shared by list endpoints.
type pageQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

func (q pageQuery) page() repository.Page {
	return repository.Page{Limit: q.Limit, Offset: q.Offset}
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, models.Response{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.Response{Success: true, Message: message, Data: data})
}

// respondError maps typed errors to their status and envelope. Anything
// else is logged and reported as a generic 500.
func respondError(c *gin.Context, logger *logrus.Entry, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}

	status := apperrors.HTTPStatus(appErr.Kind)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"path":       c.Request.URL.Path,
		}).Error("Request failed")
		c.JSON(status, models.ErrorResponse("An internal error occurred"))
		return
	}

	_ = c.Error(err)
	c.JSON(status, models.ErrorResponse(appErr.Message, appErr.Errors...))
}

func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.Validation("Invalid request body", err.Error())
	}
	return nil
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.Validation("Invalid request body", err.Error())
	}
	return nil
}

func bindQuery(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		return apperrors.Validation("Invalid query parameters", err.Error())
	}
	return nil
}

func parseID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation("Invalid "+name, name+" must be a UUID")
	}
	return id, nil
}

func parseOptionalUUID(field, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, apperrors.Validation("Invalid query parameters", field+" must be a UUID")
	}
	return &id, nil
}

func principal(c *gin.Context) rbac.Principal {
	p, _ := middleware.GetPrincipal(c)
	return p
}

// record writes an audit entry for a successful mutation.
func record(c *gin.Context, recorder *audit.Recorder, action, resource string, resourceID *uuid.UUID, details map[string]interface{}) {
	recorder.Record(c.Request.Context(), audit.Entry{
		UserID:     principal(c).UserID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
	})
}
