package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keystone/chat"
	"keystone/database"
	"keystone/entities"
	"keystone/llm"
	"keystone/media"
	"keystone/models"
	"keystone/purge"
	"keystone/reorder"
)

// respondError maps service errors to status codes and writes the
// standard {"error": ...} body.
func respondError(c *gin.Context, op string, err error) {
	var parseErr *models.ParseError
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, entities.ErrForbidden), errors.Is(err, purge.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
	case models.IsValidationError(err), errors.As(err, &parseErr), media.IsValidationError(err),
		errors.Is(err, purge.ErrUnknownTarget), errors.Is(err, reorder.ErrNotPermutation),
		errors.Is(err, reorder.ErrIndexOutOfRange), errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, llm.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant unavailable"})
	default:
		zap.S().Errorw(op+" failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	zap.S().Debugw("Bind error", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
