package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetVersion handles GET /api/version. Clients poll it to detect a new
// deployment and refresh cached assets.
func (h *Handler) GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.version})
}
