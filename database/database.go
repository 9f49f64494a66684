package database

import (
	"fmt"

	"arkive/models"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the SQLite database at dbPath and auto-migrates the schema.
// A nil gormLogger silences query logging.
func Open(dbPath string, gormLogger gormlogger.Interface, log *zap.Logger) (*gorm.DB, error) {
	if gormLogger == nil {
		gormLogger = gormlogger.Discard
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database at %s: %w", dbPath, err)
	}
	log.Info("database connection established", zap.String("path", dbPath))

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database schema migrated")
	return db, nil
}

// Migrate creates or updates the tables used by the service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.URLRecord{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
