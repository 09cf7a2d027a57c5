// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package throttle limits how often codes can be requested for an address.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited is returned when the limit for a key is exhausted.
var ErrRateLimited = errors.New("rate limited")

// Limiter decides whether another code may be issued for purpose and email.
type Limiter interface {
	Allow(ctx context.Context, purpose, email string) error
}

// Nop allows everything.
type Nop struct{}

// Allow always returns nil.
func (Nop) Allow(context.Context, string, string) error { return nil }

// Connect creates a Redis client from a redis:// URL or a plain host:port
// and checks that the server answers.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return client, nil
}

// RedisLimiter is a fixed window counter per key.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisLimiter allows limit requests per window for each key.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = time.Hour
	}
	return &RedisLimiter{client: client, limit: int64(limit), window: window}
}

func key(purpose, email string) string {
	return "send-code:" + purpose + ":" + strings.ToLower(strings.TrimSpace(email))
}

// Allow counts the request and rejects it once the window's limit is passed.
// Redis errors are logged and the request is allowed.
func (l *RedisLimiter) Allow(ctx context.Context, purpose, email string) error {
	k := key(purpose, email)

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		slog.WarnContext(ctx, "rate_limiter_unavailable", "error", err)
		return nil
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			slog.WarnContext(ctx, "rate_limiter_unavailable", "error", err)
		}
	}

	if count > l.limit {
		return ErrRateLimited
	}
	return nil
}
