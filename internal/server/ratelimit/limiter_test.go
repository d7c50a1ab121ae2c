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

func TestInMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	l := NewInMemory(time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, _, err := l.Allow(ctx, "ana@example.com", 3)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}

	ok, retry, err := l.Allow(ctx, "ana@example.com", 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _, _ = l.Allow(ctx, "other@example.com", 3)
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute)
	ok, _, _ = l.Allow(ctx, "ana@example.com", 3)
	assert.True(t, ok, "new window")
}

func TestInMemoryLimiter_SweepsExpiredWindows(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	l := NewInMemory(time.Minute)
	l.now = func() time.Time { return now }

	for _, k := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, _, err := l.Allow(ctx, k, 3)
		require.NoError(t, err)
	}
	assert.Len(t, l.windows, 3)

	now = now.Add(30 * time.Second)
	_, _, _ = l.Allow(ctx, "d@example.com", 3)
	assert.Len(t, l.windows, 4, "nothing expired yet")

	now = now.Add(time.Minute)
	_, _, _ = l.Allow(ctx, "e@example.com", 3)
	assert.Len(t, l.windows, 1)
	assert.Contains(t, l.windows, "e@example.com")
}

func TestInMemoryLimiter_Reset(t *testing.T) {
	ctx := context.Background()
	l := NewInMemory(time.Hour)

	for i := 0; i < 2; i++ {
		_, _, _ = l.Allow(ctx, "k", 1)
	}
	ok, _, _ := l.Allow(ctx, "k", 1)
	assert.False(t, ok)

	require.NoError(t, l.Reset(ctx, "k"))
	ok, _, _ = l.Allow(ctx, "k", 1)
	assert.True(t, ok)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	l := NewRedis(client, 10*time.Minute)

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "ana@example.com", 2)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, retry, err := l.Allow(ctx, "ana@example.com", 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))
	assert.LessOrEqual(t, retry, 10*time.Minute)

	assert.Equal(t, 10*time.Minute, mr.TTL(keyPrefix+"ana@example.com"))

	mr.FastForward(10 * time.Minute)
	ok, _, err = l.Allow(ctx, "ana@example.com", 2)
	require.NoError(t, err)
	assert.True(t, ok, "window expired")
}

func TestRedisLimiter_RestoresMissingTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	l := NewRedis(client, time.Minute)

	// A counter over the limit that lost its expiry.
	require.NoError(t, mr.Set(keyPrefix+"ana@example.com", "5"))
	assert.Equal(t, time.Duration(0), mr.TTL(keyPrefix+"ana@example.com"))

	ok, retry, err := l.Allow(ctx, "ana@example.com", 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"ana@example.com"))

	mr.FastForward(time.Minute)
	ok, _, err = l.Allow(ctx, "ana@example.com", 3)
	require.NoError(t, err)
	assert.True(t, ok, "account unlocks after one window")
}

func TestRedisLimiter_Reset(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	l := NewRedis(client, time.Minute)

	_, _, err := l.Allow(ctx, "k", 5)
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"k"))

	require.NoError(t, l.Reset(ctx, "k"))
	assert.False(t, mr.Exists(keyPrefix+"k"))
}

func TestRedisLimiter_ServerDown(t *testing.T) {
	mr, client := newRedis(t)
	l := NewRedis(client, time.Minute)
	mr.Close()

	_, _, err := l.Allow(context.Background(), "k", 5)
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	client.Close()

	_, err = Connect(context.Background(), "://bad")
	assert.Error(t, err)

	addr := mr.Addr()
	mr.Close()
	_, err = Connect(context.Background(), "redis://"+addr+"/0")
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, time.Minute, NewInMemory(0).Window)
	assert.Equal(t, time.Minute, NewRedis(nil, 0).Window)
}
