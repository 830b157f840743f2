package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedis connects to REDIS_TEST_ADDR or skips.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisThrottle_LimitAndReset(t *testing.T) {
	ctx := context.Background()
	th := NewRedisThrottle(newTestRedis(t), 5, time.Minute)
	email := uuid.NewString() + "@example.com"
	t.Cleanup(func() { _ = th.Reset(ctx, email) })

	for i := 0; i < 5; i++ {
		require.NoError(t, th.CheckAndRecord(ctx, email), "attempt %d", i+1)
	}
	require.ErrorIs(t, th.CheckAndRecord(ctx, email), ErrRateLimited)

	require.NoError(t, th.Reset(ctx, email))
	assert.NoError(t, th.CheckAndRecord(ctx, email))
}

func TestRedisThrottle_WindowExpiry(t *testing.T) {
	ctx := context.Background()
	th := NewRedisThrottle(newTestRedis(t), 1, 200*time.Millisecond)
	email := uuid.NewString() + "@example.com"

	require.NoError(t, th.CheckAndRecord(ctx, email))
	require.ErrorIs(t, th.CheckAndRecord(ctx, email), ErrRateLimited)

	assert.Eventually(t, func() bool {
		return th.CheckAndRecord(ctx, email) == nil
	}, 2*time.Second, 50*time.Millisecond)
}

func TestRedisThrottle_TTLOutlivesWindow(t *testing.T) {
	th := NewRedisThrottle(nil, 5, DefaultLoginWindow)
	assert.Equal(t, 15*time.Minute+time.Millisecond, th.ttl())
	assert.Greater(t, th.ttl().Milliseconds(), DefaultLoginWindow.Milliseconds())
}

func TestRedisThrottle_KeyTTL(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	th := NewRedisThrottle(client, 5, time.Minute)
	email := uuid.NewString() + "@example.com"
	t.Cleanup(func() { _ = th.Reset(ctx, email) })

	require.NoError(t, th.CheckAndRecord(ctx, email))
	pttl, err := client.PTTL(ctx, th.prefix+attemptKey(email)).Result()
	require.NoError(t, err)
	assert.Greater(t, pttl, 59*time.Second)
	assert.LessOrEqual(t, pttl, time.Minute+time.Millisecond)
}

func TestRedisThrottle_KeyFormat(t *testing.T) {
	assert.Equal(t, "login_janis@example.com", attemptKey(" Janis@Example.com "))
}
