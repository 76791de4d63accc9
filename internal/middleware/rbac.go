package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"erp-service/internal/models"
	"erp-service/internal/rbac"
)

// RequirePermission aborts with 403 unless the caller holds every key.
func RequirePermission(keys ...rbac.PermissionKey) gin.HandlerFunc {
	checks := make([]rbac.Requirement, len(keys))
	for i, k := range keys {
		checks[i] = rbac.RequirePermission(k)
	}
	return requireAll(checks)
}

func requireAll(checks []rbac.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse("Authentication required"))
			return
		}
		if d := rbac.AuthorizeAll(p, nil, checks...); !d.Allowed {
			forbidden(c, d.Reason)
			return
		}
		c.Next()
	}
}

func forbidden(c *gin.Context, reason string) {
	message := "Insufficient permissions"
	var details []string
	if reason = strings.TrimSpace(reason); reason != "" {
		details = []string{reason}
	}
	c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse(message, details...))
}
