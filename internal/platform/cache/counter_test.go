package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryCounterWindows(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	c := NewMemoryCounter()
	c.now = func() time.Time { return now }

	n, left, err := c.Hit(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, time.Minute, left)

	now = now.Add(20 * time.Second)
	n, left, _ = c.Hit(ctx, "k", time.Minute)
	require.Equal(t, 2, n)
	require.Equal(t, 40*time.Second, left)

	n, _, _ = c.Hit(ctx, "other", time.Minute)
	require.Equal(t, 1, n)

	now = now.Add(time.Minute)
	n, _, _ = c.Hit(ctx, "k", time.Minute)
	require.Equal(t, 1, n)
}

func TestRedisCounter(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedis(client, "test:rate:"+uuid.NewString()+":")
	n, left, err := c.Hit(ctx, "actor:E", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Greater(t, left, time.Duration(0))

	n, _, err = c.Hit(ctx, "actor:E", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
