package snipelist

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})

	return client
}

func TestNewRedisStore_NilClient(t *testing.T) {
	_, err := NewRedisStore(nil)
	assert.Error(t, err)
}

func TestRedisStore_AddListRemove(t *testing.T) {
	store, err := NewRedisStore(setupTestRedis(t))
	require.NoError(t, err)

	ctx := context.Background()
	mint := newKey(t).String()

	entry, err := store.Add(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, mint, entry.Mint)
	assert.NotZero(t, entry.AddedAt)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, mint, entries[0].Mint)

	mints, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{mint}, mints)

	require.NoError(t, store.Remove(ctx, mint))
	assert.ErrorIs(t, store.Remove(ctx, mint), ErrNotFound)

	entries, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRedisStore_InvalidMint(t *testing.T) {
	store, err := NewRedisStore(setupTestRedis(t))
	require.NoError(t, err)

	_, err = store.Add(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidMint)
	assert.ErrorIs(t, store.Remove(context.Background(), "bad"), ErrInvalidMint)
}

func TestRedisStore_FeedsSnipeList(t *testing.T) {
	store, err := NewRedisStore(setupTestRedis(t))
	require.NoError(t, err)

	mint := newKey(t)
	_, err = store.Add(context.Background(), mint.String())
	require.NoError(t, err)

	l := New(Config{Source: store, Logger: quietLogger()})
	require.NoError(t, l.Refresh(context.Background()))
	assert.True(t, l.Contains(mint))
}
