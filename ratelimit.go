package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter guards password-verification endpoints. Allow reports
// whether one more attempt fits the window for the given key (usually
// the caller IP). Implementations must be safe for concurrent use.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimiterFunc adapts a function to the RateLimiter interface.
type RateLimiterFunc func(ctx context.Context, key string) (bool, error)

// Allow implements RateLimiter.
func (f RateLimiterFunc) Allow(ctx context.Context, key string) (bool, error) {
	return f(ctx, key)
}

const (
	defaultRateLimit       = 5
	defaultRateLimitWindow = time.Minute
)

type rateWindow struct {
	count   int
	resetAt time.Time
}

// MemoryRateLimiter is a fixed-window counter held in process memory.
// It is the default for single-node deployments; multi-node hosts
// should use the Redis limiter so the window is shared.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	limit   int
	window  time.Duration
}

var _ RateLimiter = (*MemoryRateLimiter)(nil)

// NewMemoryRateLimiter creates an in-process limiter. Non-positive
// arguments fall back to 5 attempts per minute.
func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	if limit <= 0 {
		limit = defaultRateLimit
	}
	if window <= 0 {
		window = defaultRateLimitWindow
	}

	return &MemoryRateLimiter{
		windows: make(map[string]*rateWindow),
		limit:   limit,
		window:  window,
	}
}

// Allow counts one attempt against the key's current window.
func (l *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		l.windows[key] = &rateWindow{
			count:   1,
			resetAt: now.Add(l.window),
		}
		l.sweep(now)
		return true, nil
	}

	w.count++
	return w.count <= l.limit, nil
}

// sweep drops expired windows so the map does not grow unbounded.
// Callers hold the lock.
func (l *MemoryRateLimiter) sweep(now time.Time) {
	if len(l.windows) < 1024 {
		return
	}
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
		}
	}
}

// RedisRateLimiter is a fixed-window counter shared through Redis:
// INCR on the key, EXPIRE on first hit. Suitable when several nodes
// serve the same login surface.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

var _ RateLimiter = (*RedisRateLimiter)(nil)

// NewRedisRateLimiter creates a Redis-backed limiter. Non-positive
// arguments fall back to 5 attempts per minute.
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	if limit <= 0 {
		limit = defaultRateLimit
	}
	if window <= 0 {
		window = defaultRateLimitWindow
	}

	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
	}
}

// Allow counts one attempt against the key's current window. Redis
// errors surface as storage errors so callers can fail closed.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, WrapStorageError(err, "rate limiter unavailable")
	}

	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, WrapStorageError(err, "rate limiter unavailable")
		}
	}

	return count <= int64(l.limit), nil
}
