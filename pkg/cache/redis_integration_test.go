//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/followup/pkg/cache"
	"github.com/dmitrymomot/followup/pkg/redis"
)

func newTestRedisClient(t *testing.T) goredis.UniversalClient {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}

	ctx := context.Background()
	client, err := redis.Open(ctx, url)
	require.NoError(t, err, "failed to connect to Redis")

	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedis_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewRedis[time.Time](newTestRedisClient(t), nil, cache.WithPrefix("test-followup-marks"))

	_, err := c.Get(ctx, "missing")
	require.ErrorIs(t, err, cache.ErrNotFound)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.Set(ctx, "k", at, time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, at.Equal(got))

	ok, err := c.Has(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Delete(ctx, "k"))
	ok, err = c.Has(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedis_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewRedis[string](newTestRedisClient(t), nil, cache.WithPrefix("test-followup-ttl"))

	require.NoError(t, c.Set(ctx, "short", "v", 50*time.Millisecond))
	require.Eventually(t, func() bool {
		ok, err := c.Has(ctx, "short")
		return err == nil && !ok
	}, 2*time.Second, 20*time.Millisecond)
}
