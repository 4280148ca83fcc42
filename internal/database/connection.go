// internal/database/connection.go
package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mintnprint/backend/internal/config"
	"github.com/mintnprint/backend/internal/models"
)

// Initialize opens the order archive database and migrates its schema.
// The archive is optional: when no database is configured this returns
// (nil, nil) and the archive service degrades to log-only.
func Initialize(cfg *config.Config) (*gorm.DB, error) {
	if !cfg.Database.Enabled {
		logrus.Info("Database not configured, order archive disabled")
		return nil, nil
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.Environment == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.OrderArchive{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logrus.Info("Database connection established")
	return db, nil
}
