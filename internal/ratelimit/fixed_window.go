package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "moviedb:ratelimit"

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Limiter decides whether a caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisFixedWindowLimiter counts requests per key per fixed window in Redis,
// so the quota is shared by every replica.
type RedisFixedWindowLimiter struct {
	limit  int
	window time.Duration
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisFixedWindowLimiter creates a Redis-backed limiter on an existing client.
func NewRedisFixedWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration) (*RedisFixedWindowLimiter, error) {
	if err := validateQuota(limit, window); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("rate limiter redis client is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisFixedWindowLimiter{
		limit:  limit,
		window: window,
		client: client,
		prefix: prefix,
		now:    time.Now,
	}, nil
}

// Allow reports whether key is within quota. Redis failures are returned to
// the caller, together with false.
func (l *RedisFixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowMs := l.window.Milliseconds()
	slot := l.now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, normalizeKey(key), slot)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	return count <= int64(l.limit), nil
}

// validateQuota rejects windows below the millisecond resolution of the slot
// arithmetic.
func validateQuota(limit int, window time.Duration) error {
	if limit <= 0 {
		return errors.New("rate limiter requires a positive limit")
	}
	if window < time.Millisecond {
		return errors.New("rate limiter window must be at least 1ms")
	}
	return nil
}

// MemoryFixedWindowLimiter is the single-process variant used when no Redis
// is configured.
type MemoryFixedWindowLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	slot   int64
	counts map[string]int
}

// NewMemoryFixedWindowLimiter creates an in-process limiter.
func NewMemoryFixedWindowLimiter(limit int, window time.Duration) (*MemoryFixedWindowLimiter, error) {
	if err := validateQuota(limit, window); err != nil {
		return nil, err
	}
	return &MemoryFixedWindowLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		counts: make(map[string]int),
	}, nil
}

// Allow reports whether key is within quota. It never fails.
func (l *MemoryFixedWindowLimiter) Allow(_ context.Context, key string) (bool, error) {
	slot := l.now().UTC().UnixMilli() / l.window.Milliseconds()
	key = normalizeKey(key)

	l.mu.Lock()
	defer l.mu.Unlock()
	if slot != l.slot {
		l.slot = slot
		l.counts = make(map[string]int)
	}
	l.counts[key]++
	return l.counts[key] <= l.limit, nil
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "unknown"
	}
	return key
}
