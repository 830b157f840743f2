package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// checkAndRecordScript returns -1 when the limit is reached, otherwise the new
// count. The key expiry doubles as the window reset; rejected attempts do not
// extend it. ARGV[2] must come from RedisThrottle.ttl.
var checkAndRecordScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
  return -1
end
current = redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return current
`)

// RedisThrottle shares attempt counters between processes through Redis.
type RedisThrottle struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// NewRedisThrottle builds a throttle backed by the given client.
func NewRedisThrottle(client redis.UniversalClient, limit int, window time.Duration) *RedisThrottle {
	if limit <= 0 {
		limit = DefaultLoginMaxAttempts
	}
	if window <= 0 {
		window = DefaultLoginWindow
	}
	return &RedisThrottle{client: client, prefix: "homemanager:", limit: limit, window: window}
}

// CheckAndRecord implements LoginThrottle.
func (t *RedisThrottle) CheckAndRecord(ctx context.Context, identifier string) error {
	res, err := checkAndRecordScript.Run(ctx, t.client,
		[]string{t.prefix + attemptKey(identifier)},
		t.limit, t.ttl().Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("login throttle: %w", err)
	}
	if res < 0 {
		return ErrRateLimited
	}
	return nil
}

// ttl keeps the key one millisecond past the window so a counter is still
// live at exactly window after the last attempt, matching MemoryThrottle.
func (t *RedisThrottle) ttl() time.Duration {
	return t.window + time.Millisecond
}

// Reset implements LoginThrottle.
func (t *RedisThrottle) Reset(ctx context.Context, identifier string) error {
	if err := t.client.Del(ctx, t.prefix+attemptKey(identifier)).Err(); err != nil {
		return fmt.Errorf("login throttle reset: %w", err)
	}
	return nil
}
