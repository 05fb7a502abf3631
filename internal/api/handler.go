package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medreminder-backend/internal/auth"
	"medreminder-backend/internal/engine"
	"medreminder-backend/internal/schedule"
	"medreminder-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine   *engine.Engine
	store    store.Store
	provider schedule.Provider
	auth     *auth.Service
	webpush  *webpush.Options
	cookie   string
	version  string
	log      *zap.SugaredLogger
}

// NewHandler creates a new API handler.
func NewHandler(e *engine.Engine, s store.Store, p schedule.Provider, a *auth.Service, webpushOptions *webpush.Options, cookie, version string, log *zap.SugaredLogger) *Handler {
	if version == "" {
		version = "dev"
	}
	return &Handler{
		engine:   e,
		store:    s,
		provider: p,
		auth:     a,
		webpush:  webpushOptions,
		cookie:   cookie,
		version:  version,
		log:      log,
	}
}

// abortDomainError maps engine/schedule errors to HTTP responses: bad input
// is 400, a broken schedule document is 500 (no partial results), and a
// storage outage is 503 so the client can choose to retry.
func (h *Handler) abortDomainError(c *gin.Context, err error) {
	var vErr *engine.ValidationError
	if errors.As(err, &vErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "field": vErr.Field})
		return
	}
	var cErr *schedule.ConfigError
	if errors.As(err, &cErr) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": cErr.Error(), "field": cErr.Field})
		return
	}
	if errors.Is(err, engine.ErrStorageUnavailable) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	h.log.Errorw("request failed", "path", c.FullPath(), "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
