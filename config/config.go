package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the runtime configuration loaded from environment variables.
// The medication schedule itself lives in a separate YAML document (see
// internal/schedule) that is re-read on every request.
type Config struct {
	Port     int    `envconfig:"PORT" default:"5001"`
	DataDir  string `envconfig:"DATA_DIR" default:"./data"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error

	// DatabaseDSN selects the intake log backend. Empty means a SQLite file
	// under DataDir; a postgres DSN switches to Postgres.
	DatabaseDSN string `envconfig:"DATABASE_DSN" default:""`

	AuthEnabled     bool    `envconfig:"AUTH_ENABLED" default:"true"`
	SessionCookie   string  `envconfig:"SESSION_COOKIE" default:"mrem_token"`
	SMTPHost        string  `envconfig:"SMTP_HOST" default:""`
	SMTPPort        int     `envconfig:"SMTP_PORT" default:"587"`
	MailFrom        string  `envconfig:"MAIL_FROM" default:""`
	MailUser        string  `envconfig:"MAIL_USER" default:""`
	MailPassword    string  `envconfig:"MAIL_PASSWORD" default:""`
	RateLimitPerSec float64 `envconfig:"RATE_LIMIT_PER_SEC" default:"10"`
	RateLimitBurst  int     `envconfig:"RATE_LIMIT_BURST" default:"20"`

	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY" default:""`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY" default:""`
	PushSubject     string `envconfig:"PUSH_SUBJECT" default:""`
	PushTTL         int    `envconfig:"PUSH_TTL" default:"3600"`

	WorkerPoolSize int  `envconfig:"WORKER_POOL_SIZE" default:"1"`
	ScannerEnabled bool `envconfig:"SCANNER_ENABLED" default:"true"`
}

// Load reads environment variables into Config. A .env file is honored when
// present (local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 1
	}
	if cfg.PushTTL <= 0 {
		cfg.PushTTL = 3600
	}
	return &cfg, nil
}
