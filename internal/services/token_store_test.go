package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store RefreshTokenStore) {
	ctx := context.Background()

	ok, err := store.Exists(ctx, "never-issued")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "token-a", 1, time.Hour))
	ok, err = store.Exists(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Revoke(ctx, "token-a"))
	ok, err = store.Exists(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, ok)

	// revoking twice is harmless
	require.NoError(t, store.Revoke(ctx, "token-a"))
}

func TestGormTokenStore(t *testing.T) {
	exerciseStore(t, NewGormTokenStore(InitTestDB(t)))
}

func TestGormTokenStoreExpiry(t *testing.T) {
	store := NewGormTokenStore(InitTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "expired", 1, -time.Minute))
	require.NoError(t, store.Save(ctx, "live", 1, time.Hour))

	ok, err := store.Exists(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = store.Exists(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGormTokenStoreKeepsOnlyDigest(t *testing.T) {
	db := InitTestDB(t)
	store := NewGormTokenStore(db)
	require.NoError(t, store.Save(context.Background(), "plain-token", 3, time.Hour))

	var hashes []string
	require.NoError(t, db.Table("refresh_tokens").Pluck("token_hash", &hashes).Error)
	require.Len(t, hashes, 1)
	assert.NotEqual(t, "plain-token", hashes[0])
	assert.Len(t, hashes[0], 64)
}

func TestRedisTokenStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	exerciseStore(t, NewRedisTokenStore(client))
}
