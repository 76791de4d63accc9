package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"erp-service/internal/audit"
	"erp-service/internal/models"
	"erp-service/internal/services"
)

// UserHandler handles user accounts and permission overrides.
type UserHandler struct {
	service  UserService
	recorder *audit.Recorder
	logger   *logrus.Entry
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, recorder *audit.Recorder, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		service:  service,
		recorder: recorder,
		logger:   logger.WithField("component", "user_handler"),
	}
}

type userListQuery struct {
	Role      string `form:"role"`
	Search    string `form:"search"`
	ServiceID string `form:"serviceId"`
	pageQuery
}

// ListUsers lists users
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role"
// @Param search query string false "Name or email"
// @Param serviceId query string false "Service ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Response
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var q userListQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, h.logger, err)
		return
	}
	serviceID, err := parseOptionalUUID("serviceId", q.ServiceID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), q.Role, q.Search, serviceID, q.page())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, result)
}

// GetUser returns one user
// @Summary Get user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.Response{data=models.User}
// @Failure 404 {object} models.Response
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	user, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}

// CreateUser creates an account
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.CreateUserInput true "User"
// @Success 201 {object} models.Response{data=models.User}
// @Failure 400 {object} models.Response
// @Failure 409 {object} models.Response
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var input services.CreateUserInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	user, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	record(c, h.recorder, models.AuditActionCreate, models.ResourceUser, &user.ID, map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	})
	respondMessage(c, http.StatusCreated, "User created successfully", user)
}

// UpdateUser edits an account
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body services.UpdateUserInput true "Changes"
// @Success 200 {object} models.Response{data=models.User}
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var input services.UpdateUserInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	user, err := h.service.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	record(c, h.recorder, models.AuditActionUpdate, models.ResourceUser, &user.ID, nil)
	respond(c, http.StatusOK, user)
}

// GetUserPermissions returns the effective permissions of a user
// @Summary Get user permissions
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.Response{data=services.UserPermissions}
// @Router /users/{id}/permissions [get]
func (h *UserHandler) GetUserPermissions(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	perms, err := h.service.Permissions(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, perms)
}

// SetUserPermissions stores a custom permission set
// @Summary Override user permissions
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body services.SetPermissionsInput true "Permission keys"
// @Success 200 {object} models.Response{data=services.UserPermissions}
// @Failure 400 {object} models.Response
// @Router /users/{id}/permissions [put]
func (h *UserHandler) SetUserPermissions(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var input services.SetPermissionsInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	perms, err := h.service.SetPermissions(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	record(c, h.recorder, models.AuditActionSetPermissions, models.ResourceUser, &id, map[string]interface{}{
		"permissions": perms.Permissions.Strings(),
	})
	respond(c, http.StatusOK, perms)
}

// ResetUserPermissions drops the override
// @Summary Reset user permissions to the role default
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.Response{data=services.UserPermissions}
// @Router /users/{id}/permissions [delete]
func (h *UserHandler) ResetUserPermissions(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	perms, err := h.service.ResetPermissions(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	record(c, h.recorder, models.AuditActionResetPermissions, models.ResourceUser, &id, nil)
	respond(c, http.StatusOK, perms)
}

// PermissionCatalog lists permission keys and role defaults
// @Summary Permission catalog
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response{data=services.PermissionCatalog}
// @Router /permissions [get]
func (h *UserHandler) PermissionCatalog(c *gin.Context) {
	respond(c, http.StatusOK, h.service.Catalog())
}
