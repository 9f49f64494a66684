// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"arkive/database"
	"arkive/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// SetupTestDB opens a private in-memory SQLite database for t and migrates
// the schema. The database is closed when the test finishes.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:arkive_test_%d?mode=memory&cache=shared", dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err, "Failed to connect to in-memory test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A shared-cache memory database lives as long as one connection is open.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db), "Failed to auto-migrate test database schema")

	t.Cleanup(func() {
		require.NoError(t, database.Close(db))
	})
	return db
}

// ClearURLRecords deletes all rows from the url_records table.
func ClearURLRecords(db *gorm.DB) error {
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.URLRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete url records: %w", err)
	}
	return nil
}

// SeedRecord inserts rec directly, bypassing the workflow.
func SeedRecord(t *testing.T, db *gorm.DB, rec models.URLRecord) models.URLRecord {
	t.Helper()
	if rec.Provider == "" {
		rec.Provider = models.ProviderInternetArchive
	}
	require.NoError(t, db.Create(&rec).Error, "Failed to create test url record")
	return rec
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
