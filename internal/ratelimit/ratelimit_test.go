package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	limiter := newFromClient(client, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "github-like")
		require.NoError(t, err)
		assert.True(t, allowed, "delivery %d should be allowed", i)
	}

	allowed, err := limiter.Allow(ctx, "github-like")
	require.NoError(t, err)
	assert.False(t, allowed, "delivery past the limit should be rejected")
}

func TestRedisRateLimiter_PerKey(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	limiter := newFromClient(client, 1, time.Minute)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "github-like")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "github-like")
	require.NoError(t, err)
	assert.False(t, allowed)

	// A different provider kind has its own window.
	allowed, err = limiter.Allow(ctx, "jira-like")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_Unavailable(t *testing.T) {
	mr, client := setupTestRedis(t)
	limiter := newFromClient(client, 10, time.Minute)
	mr.Close()

	_, err := limiter.Allow(context.Background(), "github-like")
	assert.Error(t, err)
}

func TestNoOpRateLimiter(t *testing.T) {
	limiter := NoOpRateLimiter{}
	for i := 0; i < 1000; i++ {
		allowed, err := limiter.Allow(context.Background(), "any")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}
