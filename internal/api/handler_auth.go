package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"medreminder-backend/internal/auth"
	"medreminder-backend/internal/mw"
)

// AuthCheck handles GET /api/auth/check, the documented unauthenticated
// probe: it reports whether the caller holds a live session.
func (h *Handler) AuthCheck(c *gin.Context) {
	if !h.auth.Enabled() {
		c.JSON(http.StatusOK, gin.H{"authenticated": true, "auth_enabled": false})
		return
	}

	email, ok := h.auth.Resolve(mw.TokenFrom(c, h.cookie))
	resp := gin.H{"authenticated": ok, "auth_enabled": true}
	if ok {
		resp["email"] = email
	}
	c.JSON(http.StatusOK, resp)
}

type authRequestBody struct {
	Email string `json:"email" binding:"required"`
}

// AuthRequest handles POST /api/auth/request. The response does not reveal
// whether the address is registered.
func (h *Handler) AuthRequest(c *gin.Context) {
	if !h.auth.Enabled() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "auth not enabled"})
		return
	}

	var req authRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email required"})
		return
	}

	if err := h.auth.RequestOTP(req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "If email is registered, OTP was sent"})
}

type authVerifyBody struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

// AuthVerify handles POST /api/auth/verify and issues the session cookie.
func (h *Handler) AuthVerify(c *gin.Context) {
	if !h.auth.Enabled() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "auth not enabled"})
		return
	}

	var req authVerifyBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and OTP required"})
		return
	}

	token, err := h.auth.VerifyOTP(req.Email, req.OTP)
	if err != nil {
		if errors.Is(err, auth.ErrTooManyAttempts) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie, token, int(auth.SessionTTL().Seconds()), "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "email": req.Email})
}

// AuthLogout handles POST /api/auth/logout.
func (h *Handler) AuthLogout(c *gin.Context) {
	h.auth.Logout(mw.TokenFrom(c, h.cookie))
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie, "", -1, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
