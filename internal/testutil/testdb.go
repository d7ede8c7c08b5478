// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"testing"

	"bankcards/internal/adapters/persistence/models"
	"bankcards/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns a migrated in-memory SQLite database with USER and ADMIN roles seeded.
// A single connection is used so every statement sees the same memory database.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))

	for _, name := range []string{domain.RoleUser, domain.RoleAdmin} {
		require.NoError(t, db.Create(&models.Role{RoleName: name, Enabled: true}).Error)
	}

	return db
}
