package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"keystone/cache"
	"keystone/middleware"
	"keystone/purge"
)

type resetRequest struct {
	Target string `json:"target" binding:"required"`
}

// Reset bulk-deletes the target collections. The purge job checks the
// caller's role itself before deleting anything.
func Reset(p *purge.Purger, qc *cache.QueryCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req resetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		result, err := p.Run(c.Request.Context(), middleware.CurrentPrincipal(c), req.Target)
		for collection := range result.Deleted {
			qc.Invalidate(collection)
		}
		if err != nil {
			respondError(c, "Reset", err)
			return
		}
		c.JSON(http.StatusOK, result.Summary())
	}
}
