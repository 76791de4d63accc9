package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"erp-service/internal/apperrors"
	"erp-service/internal/models"
	"erp-service/internal/rbac"
)

const principalKey = "principal"

// Authenticator resolves a bearer token into the caller's principal.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (rbac.Principal, error)
}

// Auth requires a valid "Authorization: Bearer <token>" header and stores
// the resolved principal on the context.
func Auth(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse("Missing or malformed Authorization header"))
			return
		}

		p, err := authenticator.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			status := apperrors.HTTPStatus(apperrors.KindOf(err))
			message := "Invalid or expired token"
			var appErr *apperrors.Error
			if status != http.StatusInternalServerError && errors.As(err, &appErr) {
				message = appErr.Message
			}
			c.AbortWithStatusJSON(status, models.ErrorResponse(message))
			return
		}

		SetPrincipal(c, p)
		c.Next()
	}
}

// SetPrincipal stores p on the request context.
func SetPrincipal(c *gin.Context, p rbac.Principal) {
	c.Set(principalKey, p)
}

// GetPrincipal returns the authenticated caller.
func GetPrincipal(c *gin.Context) (rbac.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return rbac.Principal{}, false
	}
	p, ok := v.(rbac.Principal)
	return p, ok
}
