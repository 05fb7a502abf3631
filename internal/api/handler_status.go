package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetStatus handles GET /api/status. The report is recomputed from current
// state on every call; there is no response cache by design. degraded=1 opts
// into serving a status without acknowledgment data when the intake log is
// down.
func (h *Handler) GetStatus(c *gin.Context) {
	degraded := c.Query("degraded") == "1"

	report, err := h.engine.Status(c.Request.Context(), time.Now(), degraded)
	if err != nil {
		h.abortDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
