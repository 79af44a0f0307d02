package revocation

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real Redis when REDIS_ADDRESS is set
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set")
	}

	ctx := context.Background()
	client, err := OpenRedis(ctx, addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client)
	tokenID := "test-" + time.Now().Format("20060102150405.000000000")
	t.Cleanup(func() { client.Del(ctx, keyPrefix+tokenID) })

	revoked, err := store.IsRevoked(ctx, tokenID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, tokenID, "user-1", time.Now().Add(time.Minute)))

	revoked, err = store.IsRevoked(ctx, tokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := client.TTL(ctx, keyPrefix+tokenID).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisStore_ExpiredTokenIsNotStored(t *testing.T) {
	store := NewRedisStore(nil)

	// Never touches the client
	require.NoError(t, store.Revoke(context.Background(), "jti", "user-1", time.Now().Add(-time.Second)))
}

func TestOpenRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := OpenRedis(ctx, "127.0.0.1:1")
	assert.ErrorContains(t, err, "failed to ping redis")
}
