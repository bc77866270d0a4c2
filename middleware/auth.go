package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keystone/auth"
)

const principalKey = "principal"

// BearerToken returns the token of an "Authorization: Bearer ..." header.
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Authenticate resolves the session token, if any, into the request's
// principal. Requests without a valid session continue as anonymous.
func Authenticate(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := auth.Anonymous
		if token, ok := BearerToken(c); ok {
			p, err := svc.Resolve(c.Request.Context(), token)
			switch {
			case err == nil:
				principal = p
			case errors.Is(err, auth.ErrInvalidSession):
			default:
				zap.S().Errorw("failed to resolve session", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve session"})
				return
			}
		}

		// Store principal in context for handlers to use
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireAdmin rejects callers whose role is not exactly "admin".
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentPrincipal(c).IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the principal set by Authenticate.
func CurrentPrincipal(c *gin.Context) auth.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(auth.Principal); ok {
			return p
		}
	}
	return auth.Anonymous
}
