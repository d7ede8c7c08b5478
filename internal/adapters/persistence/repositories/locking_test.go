package repositories

import (
	"context"
	"testing"

	"bankcards/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type capturedQuery struct {
	sql  string
	vars []interface{}
}

// dryRun opens dialector without a server and records the last rendered query
func dryRun(t *testing.T, dialector gorm.Dialector) (*gorm.DB, *capturedQuery) {
	t.Helper()

	db, err := gorm.Open(dialector, &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, capture(t, db)
}

func capture(t *testing.T, db *gorm.DB) *capturedQuery {
	t.Helper()

	captured := &capturedQuery{}
	err := db.Callback().Query().After("gorm:query").Register("test:capture", func(tx *gorm.DB) {
		captured.sql = tx.Statement.SQL.String()
		captured.vars = tx.Statement.Vars
	})
	require.NoError(t, err)
	return captured
}

func lockingDialectors() map[string]func() gorm.Dialector {
	return map[string]func() gorm.Dialector{
		"mysql": func() gorm.Dialector {
			return mysql.New(mysql.Config{
				DSN:                       "bankcards:secret@tcp(127.0.0.1:3306)/bankcards?parseTime=true",
				SkipInitializeWithVersion: true,
			})
		},
		"postgres": func() gorm.Dialector {
			return postgres.New(postgres.Config{
				DSN: "host=127.0.0.1 user=bankcards password=secret dbname=bankcards sslmode=disable",
			})
		},
	}
}

func TestLockQueries(t *testing.T) {
	ctx := context.Background()

	for name, dialector := range lockingDialectors() {
		t.Run(name, func(t *testing.T) {
			db, captured := dryRun(t, dialector())

			t.Run("cards in ascending id order", func(t *testing.T) {
				_, err := NewCardRepository(db).LockByIDs(ctx, 9, 3, 9, 5)
				require.NoError(t, err)
				assert.Contains(t, captured.sql, "FOR UPDATE")
				assert.Contains(t, captured.sql, "ORDER BY id ASC")
				assert.Equal(t, []interface{}{uint(3), uint(5), uint(9)}, captured.vars)
			})

			t.Run("user", func(t *testing.T) {
				_, err := NewUserRepository(db).LockByID(ctx, 7)
				require.NoError(t, err)
				assert.Contains(t, captured.sql, "users")
				assert.Contains(t, captured.sql, "FOR UPDATE")
				assert.Contains(t, captured.vars, uint(7))
			})

			t.Run("block request", func(t *testing.T) {
				_, err := NewBlockRequestRepository(db).LockByID(ctx, 11)
				require.NoError(t, err)
				assert.Contains(t, captured.sql, "block_requests")
				assert.Contains(t, captured.sql, "FOR UPDATE")
				assert.Contains(t, captured.vars, uint(11))
			})
		})
	}
}

func TestLockQueries_SQLiteSkipsRowLock(t *testing.T) {
	db := testutil.OpenDB(t).Session(&gorm.Session{DryRun: true})
	captured := capture(t, db)

	_, err := NewCardRepository(db).LockByIDs(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.NotContains(t, captured.sql, "FOR UPDATE")
	assert.Contains(t, captured.sql, "ORDER BY id ASC")
	assert.Equal(t, []interface{}{uint(1), uint(2)}, captured.vars)
}
