package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether another request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter is a per-key token bucket held in process memory. Counters are
// not shared between replicas.
type MemoryLimiter struct {
	capacity  int
	perMinute int
	now       func() time.Time

	mu    sync.Mutex
	state map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewMemoryLimiter creates a limiter refilling perMinute tokens up to capacity.
func NewMemoryLimiter(capacity, perMinute int) *MemoryLimiter {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &MemoryLimiter{
		capacity:  capacity,
		perMinute: perMinute,
		now:       time.Now,
		state:     make(map[string]*bucket),
	}
}

// Allow consumes one token for key.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.perMinute <= 0 {
		return true, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true, nil
	}

	refill := int(now.Sub(b.last).Minutes() * float64(l.perMinute))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// RedisLimiter counts requests in fixed one-minute windows shared through Redis.
type RedisLimiter struct {
	client    *redis.Client
	perMinute int
	prefix    string
	now       func() time.Time
}

// NewRedisLimiter creates a limiter storing counters under prefix.
func NewRedisLimiter(client *redis.Client, perMinute int, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, perMinute: perMinute, prefix: prefix, now: time.Now}
}

// Allow increments the counter for the current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.perMinute <= 0 {
		return true, nil
	}

	window := l.now().UTC().Unix() / 60
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, window)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, 2*time.Minute)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("increment rate counter: %w", err)
	}

	return incr.Val() <= int64(l.perMinute), nil
}
