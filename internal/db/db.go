package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"medreminder-backend/config"
	"medreminder-backend/internal/model"
)

// Init opens the intake log database and runs migrations. An empty DSN means
// a SQLite file under the data directory; a postgres DSN switches drivers.
func Init(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseDSN
	var dialector gorm.Dialector
	if dsn == "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		dialector = sqlite.Open(filepath.Join(cfg.DataDir, "intake_log.db"))
	} else if strings.HasPrefix(dsn, "postgres://") || strings.Contains(dsn, "host=") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := gdb.AutoMigrate(
		&model.IntakeRecord{},
		&model.PushSubscription{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}
	return gdb, nil
}
