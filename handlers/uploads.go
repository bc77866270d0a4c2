package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"keystone/media"
)

// Upload stores a multipart "file" and returns its public URL.
func Upload(svc *media.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondError(c, "Upload", err)
			return
		}
		defer f.Close()

		uploaded, err := svc.Upload(c.Request.Context(), fh.Filename, fh.Size, f)
		if err != nil {
			respondError(c, "Upload", err)
			return
		}
		c.JSON(http.StatusCreated, uploaded)
	}
}
