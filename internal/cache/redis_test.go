package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/constants"
	"github.com/aman-zulfiqar/raydium-sniper/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
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
	return client
}

func newTestCache(t *testing.T) *RedisCache {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	c := NewRedisCache(setupTestRedis(t), l)
	t.Cleanup(func() {
		_ = c.client.FlushDB(context.Background()).Err()
		_ = c.Close()
	})
	return c
}

func TestRedisCache_RecentTradesCapped(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < constants.MaxRecentTrades+5; i++ {
		require.NoError(t, c.AddRecentTrade(ctx, &models.TradeEvent{Signature: fmt.Sprintf("sig-%d", i)}))
	}

	all, err := c.GetRecentTrades(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, constants.MaxRecentTrades)

	latest, err := c.GetRecentTrades(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, fmt.Sprintf("sig-%d", constants.MaxRecentTrades+4), latest[0].Signature)
}

func TestRedisCache_PublishSubscribe(t *testing.T) {
	c := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.SubscribeTrades(ctx)
	require.NoError(t, err)

	require.NoError(t, c.PublishTrade(ctx, &models.TradeEvent{Signature: "live", Side: models.SideSell, Mint: "m"}))

	select {
	case got := <-ch:
		assert.Equal(t, "live", got.Signature)
	case <-time.After(2 * time.Second):
		t.Fatal("no trade received")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, time.Second, 10*time.Millisecond)
}
