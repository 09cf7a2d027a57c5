// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package throttle_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/typecode/accounts/internal/services/throttle"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisLimiter_RejectsAboveLimit(t *testing.T) {
	_, client := newRedis(t)
	limiter := throttle.NewRedisLimiter(client, 3, time.Hour)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, limiter.Allow(ctx, "verification", "ann@example.com"))
	}

	err := limiter.Allow(ctx, "verification", "ann@example.com")
	assert.ErrorIs(t, err, throttle.ErrRateLimited)
}

func TestRedisLimiter_KeysAreIndependent(t *testing.T) {
	_, client := newRedis(t)
	limiter := throttle.NewRedisLimiter(client, 1, time.Hour)
	ctx := context.Background()

	require.NoError(t, limiter.Allow(ctx, "verification", "ann@example.com"))
	require.NoError(t, limiter.Allow(ctx, "password_reset", "ann@example.com"))
	require.NoError(t, limiter.Allow(ctx, "verification", "bob@example.com"))

	assert.ErrorIs(t, limiter.Allow(ctx, "verification", "ANN@example.com "), throttle.ErrRateLimited)
}

func TestRedisLimiter_WindowResets(t *testing.T) {
	mr, client := newRedis(t)
	limiter := throttle.NewRedisLimiter(client, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Allow(ctx, "verification", "ann@example.com"))
	require.ErrorIs(t, limiter.Allow(ctx, "verification", "ann@example.com"), throttle.ErrRateLimited)

	mr.FastForward(time.Minute + time.Second)

	assert.NoError(t, limiter.Allow(ctx, "verification", "ann@example.com"))
}

func TestRedisLimiter_SetsExpiry(t *testing.T) {
	mr, client := newRedis(t)
	limiter := throttle.NewRedisLimiter(client, 5, 10*time.Minute)

	require.NoError(t, limiter.Allow(context.Background(), "verification", "ann@example.com"))

	assert.Equal(t, 10*time.Minute, mr.TTL("send-code:verification:ann@example.com"))
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	mr, client := newRedis(t)
	limiter := throttle.NewRedisLimiter(client, 1, time.Hour)
	mr.Close()

	for range 3 {
		assert.NoError(t, limiter.Allow(context.Background(), "verification", "ann@example.com"))
	}
}

func TestNop(t *testing.T) {
	var limiter throttle.Limiter = throttle.Nop{}

	for range 100 {
		assert.NoError(t, limiter.Allow(context.Background(), "verification", "ann@example.com"))
	}
}

func TestConnect(t *testing.T) {
	mr, _ := newRedis(t)
	ctx := context.Background()

	t.Run("host and port", func(t *testing.T) {
		client, err := throttle.Connect(ctx, mr.Addr())
		require.NoError(t, err)
		_ = client.Close()
	})

	t.Run("url", func(t *testing.T) {
		client, err := throttle.Connect(ctx, "redis://"+mr.Addr()+"/0")
		require.NoError(t, err)
		_ = client.Close()
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := throttle.Connect(ctx, "redis://localhost:notaport")
		assert.Error(t, err)
	})

	t.Run("unreachable", func(t *testing.T) {
		_, err := throttle.Connect(ctx, "127.0.0.1:1")
		assert.Error(t, err)
	})
}
