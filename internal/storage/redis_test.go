package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and a Redis storage for shopper-1
func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedis(client, "shopper-1"), mr
}

func TestRedis_LoadMissingKey(t *testing.T) {
	store, _ := setupTestRedis(t)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedis_Load(t *testing.T) {
	store, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:shopper-1", `[{"id":"978-1423103349","quantity":2}]`))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"978-1423103349","quantity":2}]`, got)
}

func TestRedis_SaveSetsTTL(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, `[]`))

	got, err := mr.Get("cart:shopper-1")
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)

	ttl := mr.TTL("cart:shopper-1")
	assert.GreaterOrEqual(t, ttl, 7*24*time.Hour)
	assert.Less(t, ttl, 7*24*time.Hour+time.Hour)
}

func TestRedis_SaveOverwrites(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, `[{"id":"a","quantity":1}]`))
	require.NoError(t, store.Save(ctx, `[{"id":"a","quantity":3}]`))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a","quantity":3}]`, got)
}

func TestRedis_Expired(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, `[]`))
	mr.FastForward(9 * 24 * time.Hour)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedis_ServerDown(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get failed")

	err = store.Save(context.Background(), `[]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set failed")
}
