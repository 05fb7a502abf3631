package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type doseRequest struct {
	Medication string `json:"medication" binding:"required"`
	Time       string `json:"time" binding:"required"`
}

// Confirm handles POST /api/confirm. A repeated confirmation for the same
// dose and day answers 200 with duplicate:true instead of an error, so
// retrying clients converge on the same response.
func (h *Handler) Confirm(c *gin.Context) {
	var req doseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.Confirm(c.Request.Context(), req.Medication, req.Time, time.Now())
	if err != nil {
		h.abortDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"medication":     result.Medication,
		"scheduled_time": result.ScheduledTime,
		"taken_at":       result.TakenAt,
		"duplicate":      result.Duplicate,
	})
}

// Snooze handles POST /api/snooze. Snoozing is always accepted and simply
// moves the suppression window forward.
func (h *Handler) Snooze(c *gin.Context) {
	var req doseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	until, err := h.engine.Snooze(req.Medication, req.Time, time.Now(), 0)
	if err != nil {
		h.abortDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"snooze_until": until,
	})
}

// GetHistory handles GET /api/history?days=N, most recent intake first.
// days is clamped to [1, 365] like the engine clamps it, so the echoed value
// matches the range actually queried.
func (h *Handler) GetHistory(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	switch {
	case err != nil || days <= 0:
		days = 7
	case days > 365:
		days = 365
	}

	records, err := h.engine.History(c.Request.Context(), time.Now(), days)
	if err != nil {
		h.abortDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records, "days": days})
}
