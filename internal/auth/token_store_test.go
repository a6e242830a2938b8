package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *RedisTokenStore {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisTokenStore(client, "test")
}

func TestRedisTokenStore_GetAbsent(t *testing.T) {
	store := setupTestStore(t)

	ts, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, ts, "an absent token set is not an error")
}

func TestRedisTokenStore_UpsertAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	original := &TokenSet{
		AccessToken:  "at",
		RefreshToken: "rt",
		TokenType:    "bearer",
		Scope:        "monitoring",
		ExpiresAtMS:  time.Now().Add(time.Hour).UnixMilli(),
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	require.NoError(t, store.Upsert(ctx, original))

	loaded, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestRedisTokenStore_UpsertOverwrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &TokenSet{AccessToken: "first"}))
	require.NoError(t, store.Upsert(ctx, &TokenSet{AccessToken: "second"}))

	loaded, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.AccessToken)
}
