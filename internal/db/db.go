package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wheel-rotation-backend/config"
	"wheel-rotation-backend/internal/model"
)

// Models lists every table managed by AutoMigrate.
var Models = []any{
	&model.WheelRotation{},
	&model.RotationHistory{},
	&model.PushSubscription{},
	&model.UserPermission{},
	&model.ClimateReading{},
}

// Open connects to the configured database without migrating it.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}
	return db, nil
}

// Init opens the database and runs migrations.
func Init(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		log.Info("applying postgres-specific DDL")
		if err := applyPostgresDDL(db); err != nil {
			log.Warn("failed to apply some postgres DDL, continuing without it", zap.Error(err))
		}
	}

	log.Info("database initialization complete")
	return nil
}

func applyPostgresDDL(db *gorm.DB) error {
	ddls := []string{
		// reminder scans only look at active wheels
		"CREATE INDEX IF NOT EXISTS idx_wheel_rotations_active_due ON wheel_rotations (next_rotation_due) " +
			"WHERE is_active;",

		// history pages by rotation time within a wheel
		"CREATE INDEX IF NOT EXISTS idx_rotation_histories_wheel_created ON rotation_histories (wheel_id, created_at);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}
