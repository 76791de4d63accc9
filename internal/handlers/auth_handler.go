package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"erp-service/internal/audit"
	"erp-service/internal/models"
	"erp-service/internal/services"
)

// AuthHandler handles login, token refresh and the current user.
type AuthHandler struct {
	service  AuthService
	recorder *audit.Recorder
	logger   *logrus.Entry
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, recorder *audit.Recorder, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		recorder: recorder,
		logger:   logger.WithField("component", "auth_handler"),
	}
}

// Login exchanges credentials for a token pair
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body services.LoginInput true "Credentials"
// @Success 200 {object} models.Response{data=services.LoginResult}
// @Failure 401 {object} models.Response
// @Failure 429 {object} models.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var input services.LoginInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.service.Login(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.recorder.Record(c.Request.Context(), audit.Entry{
		UserID:     result.User.ID,
		Action:     models.AuditActionLogin,
		Resource:   models.ResourceUser,
		ResourceID: &result.User.ID,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
	})
	respond(c, http.StatusOK, result)
}

// Refresh issues a new token pair from a refresh token
// @Summary Refresh tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body services.RefreshInput true "Refresh token"
// @Success 200 {object} models.Response{data=auth.TokenPair}
// @Failure 401 {object} models.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var input services.RefreshInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, pair)
}

// Me returns the authenticated user with effective permissions
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	p := principal(c)
	user, err := h.service.Me(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"user":        user,
		"permissions": p.Permissions,
	})
}
