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

func TestMemoryLimiter_AllowsBurstThenDenies(t *testing.T) {
	l := NewMemoryLimiter(3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "+989121234567")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}

	ok, err := l.Allow(ctx, "+989121234567")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "+989350000000")
	assert.True(t, ok, "other keys are independent")
}

func TestMemoryLimiter_Reset(t *testing.T) {
	l := NewMemoryLimiter(1, time.Hour)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "k")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, l.Reset(ctx, "k"))
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok)
}

func TestMemoryLimiter_CleanupKeepsRecentKeys(t *testing.T) {
	l := NewMemoryLimiter(1, time.Hour)
	ctx := context.Background()

	l.Allow(ctx, "recent")
	l.Cleanup()

	ok, _ := l.Allow(ctx, "recent")
	assert.False(t, ok, "recent key must keep its spent bucket")
}

func newRedisLimiter(t *testing.T, limit int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, "verify-otp", limit, window), mr
}

func TestRedisLimiter_WindowExpires(t *testing.T) {
	l, mr := newRedisLimiter(t, 2, 10*time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "+989121234567")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "+989121234567")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 10*time.Minute, mr.TTL("ratelimit:verify-otp:+989121234567"))

	mr.FastForward(10 * time.Minute)
	ok, err = l.Allow(ctx, "+989121234567")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_KeyWithoutTTLGetsOne(t *testing.T) {
	l, mr := newRedisLimiter(t, 10, 10*time.Minute)
	ctx := context.Background()
	key := "ratelimit:verify-otp:+989121234567"

	// counter left behind without an expiry
	require.NoError(t, mr.Set(key, "15"))
	require.Zero(t, mr.TTL(key))

	ok, err := l.Allow(ctx, "+989121234567")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 10*time.Minute, mr.TTL(key))

	mr.FastForward(10 * time.Minute)
	ok, err = l.Allow(ctx, "+989121234567")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_Reset(t *testing.T) {
	l, mr := newRedisLimiter(t, 1, time.Hour)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "k")
	assert.True(t, ok)
	require.NoError(t, l.Reset(ctx, "k"))
	assert.False(t, mr.Exists("ratelimit:verify-otp:k"))

	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok)
}
