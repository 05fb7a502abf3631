package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"medreminder-backend/config"
	"medreminder-backend/internal/api"
	"medreminder-backend/internal/auth"
	"medreminder-backend/internal/db"
	"medreminder-backend/internal/engine"
	"medreminder-backend/internal/logger"
	"medreminder-backend/internal/notification"
	"medreminder-backend/internal/schedule"
	"medreminder-backend/internal/snooze"
	"medreminder-backend/internal/store"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()
	log := zl.Sugar()

	// Initialize database
	gormDB, err := db.Init(cfg)
	if err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	log.Infow("database initialized")

	appStore := store.NewGormStore(gormDB)
	provider := schedule.NewFileProvider(filepath.Join(cfg.DataDir, "reminder.yaml"))
	snoozes := snooze.NewStore()
	eng := engine.New(provider, appStore, snoozes, log)

	mailer := &auth.SMTPMailer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.MailFrom,
		User:     cfg.MailUser,
		Password: cfg.MailPassword,
	}
	authSvc := auth.NewService(cfg.AuthEnabled, provider, mailer, log)
	if !cfg.AuthEnabled {
		log.Warnw("authentication is disabled")
	}

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var webpushOptions *webpush.Options
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			Subscriber:      cfg.PushSubject,
			TTL:             cfg.PushTTL,
		}
	} else {
		log.Warnw("VAPID keys not configured, push delivery disabled")
	}

	if webpushOptions != nil && cfg.ScannerEnabled {
		pool := notification.NewWorkerPool(cfg.WorkerPoolSize, appStore, webpushOptions, log)
		pool.Start(ctx)

		scanner := notification.NewScanner(eng, pool, log)
		sched, err := scanner.Start(ctx)
		if err != nil {
			log.Fatalw("failed to start dose scanner", "error", err)
		}
		defer func() { _ = sched.Shutdown() }()
		log.Infow("dose scanner started")
	}

	router := api.NewRouter(api.RouterOptions{
		Engine:          eng,
		Store:           appStore,
		Provider:        provider,
		Auth:            authSvc,
		Webpush:         webpushOptions,
		CookieName:      cfg.SessionCookie,
		Version:         version,
		RateLimitPerSec: cfg.RateLimitPerSec,
		RateLimitBurst:  cfg.RateLimitBurst,
		Log:             log,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		log.Infow("HTTP server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("HTTP server ListenAndServe", "error", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	log.Infow("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("HTTP server shutdown failed", "error", err)
	}

	log.Infow("server gracefully stopped")
}
