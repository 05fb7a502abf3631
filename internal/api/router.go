package api

import (
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"medreminder-backend/internal/auth"
	"medreminder-backend/internal/engine"
	"medreminder-backend/internal/mw"
	"medreminder-backend/internal/schedule"
	"medreminder-backend/internal/store"
)

// RouterOptions bundles the dependencies of the HTTP layer.
type RouterOptions struct {
	Engine          *engine.Engine
	Store           store.Store
	Provider        schedule.Provider
	Auth            *auth.Service
	Webpush         *webpush.Options
	CookieName      string
	Version         string
	RateLimitPerSec float64
	RateLimitBurst  int
	Log             *zap.SugaredLogger
}

// NewRouter creates and configures a new Gin router.
func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.Default()

	h := NewHandler(opts.Engine, opts.Store, opts.Provider, opts.Auth, opts.Webpush, opts.CookieName, opts.Version, opts.Log)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst))

	// Open like the health probe: clients poll it to detect new deployments
	// before they hold a session.
	api.GET("/version", h.GetVersion)

	// Auth routes stay outside the session gate; OTP issuance gets its own
	// tight limit (5 requests per 5 minutes per IP).
	ar := api.Group("/auth")
	{
		ar.GET("/check", h.AuthCheck)
		ar.POST("/request", mw.RateLimiter(rate.Every(time.Minute), 5), h.AuthRequest)
		ar.POST("/verify", h.AuthVerify)
		ar.POST("/logout", h.AuthLogout)
	}

	protected := api.Group("")
	protected.Use(mw.Auth(opts.Auth, opts.CookieName))
	{
		protected.GET("/status", h.GetStatus)
		protected.POST("/confirm", h.Confirm)
		protected.POST("/snooze", h.Snooze)
		protected.GET("/history", h.GetHistory)

		protected.GET("/config", h.GetConfig)
		protected.POST("/config", h.UpdateConfig)

		protected.GET("/subscriptions", h.GetSubscription)
		protected.PUT("/subscriptions", h.PutSubscription)
		protected.DELETE("/subscriptions", h.DeleteSubscription)
		protected.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
