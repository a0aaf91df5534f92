package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens an in-memory SQLite database with the full schema migrated
func openTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	// Enable foreign keys for SQLite (required for cascade delete)
	db.Exec("PRAGMA foreign_keys = ON")

	err = db.AutoMigrate(&models.User{}, &models.Recipient{}, &models.Message{}, &models.Sending{}, &models.Event{})
	require.NoError(t, err)

	return db
}

// cleanTestDB removes all rows in dependency order
func cleanTestDB(db *gorm.DB) {
	db.Exec("DELETE FROM events")
	db.Exec("DELETE FROM sending_recipients")
	db.Exec("DELETE FROM sendings")
	db.Exec("DELETE FROM messages")
	db.Exec("DELETE FROM recipients")
	db.Exec("DELETE FROM users")
}

func closeTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

func strPtr(s string) *string {
	return &s
}

func uintPtr(u uint) *uint {
	return &u
}

func boolPtr(b bool) *bool {
	return &b
}
