// Package ratelimit implements a fixed-window request limiter backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultLimit  = 10
	defaultWindow = time.Minute
)

// Limiter counts requests per (ip, purpose) key within a fixed window.
type Limiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{
		client: client,
		limit:  defaultLimit,
		window: defaultWindow,
	}
}

func rateLimitKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:%s:%s", purpose, ip)
}

// CheckIPRateLimit reports whether the ip has exhausted its budget for the
// given purpose in the current window.
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, rateLimitKey(ip, purpose)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}
	return count >= l.limit, nil
}

// RecordIPRequest increments the counter, starting the window on first use.
func (l *Limiter) RecordIPRequest(ctx context.Context, ip, purpose string) error {
	key := rateLimitKey(ip, purpose)

	pipe := l.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}
