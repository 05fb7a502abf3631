package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"medreminder-backend/internal/schedule"
)

// GetConfig handles GET /api/config and returns the current schedule
// document.
func (h *Handler) GetConfig(c *gin.Context) {
	doc, err := h.provider.Load()
	if err != nil {
		h.abortDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// UpdateConfig handles POST /api/config. The replacement document runs
// through the full schedule validation before anything is written; a rejected
// document leaves the old one in place.
func (h *Handler) UpdateConfig(c *gin.Context) {
	var doc schedule.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.provider.Save(&doc); err != nil {
		var cErr *schedule.ConfigError
		if errors.As(err, &cErr) {
			// Here the document is operator input, not server state.
			c.JSON(http.StatusBadRequest, gin.H{"error": cErr.Error(), "field": cErr.Field})
			return
		}
		h.abortDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "config": &doc})
}
