// Package testutil provides shared helpers for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"donation-portal/internal/database"
	"donation-portal/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory SQLite database.
// A single connection keeps the in-memory database alive for the whole test.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// NewTestStore returns a Store over a fresh in-memory database
func NewTestStore(t *testing.T) *database.Store {
	t.Helper()
	return database.NewStore(NewTestDB(t))
}

// CreateEvent inserts an active event with the given fee and ceiling
func CreateEvent(t *testing.T, store *database.Store, fee int64, maxParticipants *int) *models.Event {
	t.Helper()

	event := &models.Event{
		Name:            "Family Counseling Workshop",
		Date:            time.Now().Add(30 * 24 * time.Hour),
		Location:        "Community Center, Nairobi",
		MaxParticipants: maxParticipants,
		RegistrationFee: decimal.NewFromInt(fee),
		IsActive:        true,
	}
	require.NoError(t, store.CreateEvent(context.Background(), event))
	return event
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
