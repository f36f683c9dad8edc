package database

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"resale-console/internal/config"
	"resale-console/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database without migrating it.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config cannot be nil")
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.SqliteDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	if cfg.Driver == "postgres" {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetimeSeconds) * time.Second)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connection established", "driver", cfg.Driver)
	return db, nil
}

// New opens the database and runs auto-migration.
func New(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}
	slog.Info("database migration completed")
	return nil
}

// Setting keys mirrored between the environment and system_settings.
const (
	SettingLogLevel  = "LOG_LEVEL"
	SettingStatusTTL = "STATUS_CACHE_TTL"
)

// SyncSettings reconciles runtime settings with the system_settings table:
// stored values override cfg, and values only present in cfg are stored.
func SyncSettings(db *gorm.DB, cfg *config.Config) error {
	statusTTL := cfg.Cache.StatusTTL.String()
	settings := []struct {
		Key   string
		Value *string
	}{
		{SettingLogLevel, &cfg.Log.Level},
		{SettingStatusTTL, &statusTTL},
	}

	for _, s := range settings {
		var setting models.SystemSetting
		err := db.Where(&models.SystemSetting{Key: s.Key}).First(&setting).Error
		switch {
		case err == nil:
			if setting.Value != "" {
				*s.Value = setting.Value
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if *s.Value != "" {
				if err := db.Create(&models.SystemSetting{Key: s.Key, Value: *s.Value}).Error; err != nil {
					return fmt.Errorf("failed to store setting %s: %w", s.Key, err)
				}
			}
		default:
			return fmt.Errorf("failed to read setting %s: %w", s.Key, err)
		}
	}

	if d, err := time.ParseDuration(statusTTL); err == nil {
		cfg.Cache.StatusTTL = d
	} else {
		slog.Warn("ignoring invalid stored setting", "key", SettingStatusTTL, "value", statusTTL)
	}

	slog.Info("system settings synchronized from database")
	return nil
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	slog.Info("database connection closed")
	return nil
}

func HealthCheck(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
