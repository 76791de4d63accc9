package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NotificationHandler serves the caller's in-app notifications.
type NotificationHandler struct {
	service NotificationService
	logger  *logrus.Entry
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service NotificationService, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.WithField("component", "notification_handler"),
	}
}

// ListNotifications returns the caller's notifications, newest first
// @Summary List my notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Response{data=services.NotificationList}
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	var q struct {
		Unread bool `form:"unread"`
		pageQuery
	}
	if err := bindQuery(c, &q); err != nil {
		respondError(c, h.logger, err)
		return
	}
	list, err := h.service.List(c.Request.Context(), principal(c), q.Unread, q.page())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, list)
}

// MarkRead marks one notification as read
// @Summary Mark notification read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} models.Response
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), principal(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Notification marked as read", nil)
}

// MarkAllRead marks every notification of the caller as read
// @Summary Mark all notifications read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.service.MarkAllRead(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"updated": n})
}
