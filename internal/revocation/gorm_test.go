package revocation

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/carepoint-health/carepoint/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestGormStore_RevokeAndCheck(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(openTestDB(t))

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	expiresAt := time.Now().Add(time.Hour)
	require.NoError(t, store.Revoke(ctx, "jti-1", "user-1", expiresAt))
	require.NoError(t, store.Revoke(ctx, "jti-1", "user-1", expiresAt), "revoking twice is a no-op")

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestGormStore_Purge(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(openTestDB(t))
	now := time.Now()

	require.NoError(t, store.Revoke(ctx, "expired", "user-1", now.Add(-time.Minute)))
	require.NoError(t, store.Revoke(ctx, "live", "user-1", now.Add(time.Hour)))

	deleted, err := store.Purge(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	revoked, err := store.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked, "unexpired revocations survive the purge")

	revoked, err = store.IsRevoked(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)
}
