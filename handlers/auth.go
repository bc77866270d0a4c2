package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keystone/auth"
	"keystone/middleware"
	"keystone/models"
)

func Login(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		resp, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				zap.S().Infow("Login failed", "email", req.Email)
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
				return
			}
			respondError(c, "Login", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func Logout(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := middleware.BearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}
		if err := svc.Logout(c.Request.Context(), token); err != nil {
			respondError(c, "Logout", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

func Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		if !p.Authenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": p.UserID, "email": p.Email, "role": p.Role})
	}
}
