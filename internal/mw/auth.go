package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medreminder-backend/internal/auth"
)

// PrincipalKey is the context key under which the authenticated e-mail is
// stored for handlers.
const PrincipalKey = "principal"

// TokenFrom extracts the session token from the cookie or, failing that, a
// Bearer Authorization header.
func TokenFrom(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// Auth rejects unauthenticated requests before any engine operation runs.
// With authentication disabled (local development) every request passes.
func Auth(svc *auth.Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !svc.Enabled() {
			c.Next()
			return
		}
		email, ok := svc.Resolve(TokenFrom(c, cookieName))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "auth_required": true})
			return
		}
		c.Set(PrincipalKey, email)
		c.Next()
	}
}
