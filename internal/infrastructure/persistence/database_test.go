package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopledger/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a migrated in-memory SQLite database
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, AutoMigrate(db))
	return db
}

func sqliteConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
}

func TestNewDatabase_SQLite(t *testing.T) {
	db, err := NewDatabase(sqliteConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, "sqlite", db.Driver())
	require.NoError(t, db.AutoMigrate())
	require.NoError(t, db.Ping(context.Background()))

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)

	for _, m := range models.All() {
		assert.True(t, db.DB.Migrator().HasTable(m), "missing table for %T", m)
	}
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestDatabase_Transaction(t *testing.T) {
	db := NewDatabaseFromGorm(newTestDB(t))
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("rolls back on error", func(t *testing.T) {
		err := db.Transaction(ctx, func(tx *gorm.DB) error {
			party := newCustomer(t, "0")
			require.NoError(t, NewGormPartyRepository(tx).Create(ctx, party))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var count int64
		require.NoError(t, db.DB.Model(&models.PartyModel{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("commits on success", func(t *testing.T) {
		err := db.Transaction(ctx, func(tx *gorm.DB) error {
			return NewGormPartyRepository(tx).Create(ctx, newCustomer(t, "0"))
		})
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.DB.Model(&models.PartyModel{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(sqliteConfig())
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))
}

func TestNewDatabaseFromGorm_Driver(t *testing.T) {
	mock := testutil.NewMockDB(t)
	assert.Equal(t, "postgres", NewDatabaseFromGorm(mock.DB).Driver())
}
