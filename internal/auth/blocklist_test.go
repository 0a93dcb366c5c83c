package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBlocklist(t *testing.T) {
	ctx := context.Background()
	bl := NewInMemoryBlocklistService(InMemoryBlocklistConfig{DefaultExpiration: time.Minute, CleanupInterval: time.Minute})

	require.NoError(t, bl.AddToBlocklist(ctx, "jti-1", time.Now().Add(time.Minute)))
	require.NoError(t, bl.AddToBlocklist(ctx, "jti-old", time.Now().Add(-time.Minute)))

	revoked, err := bl.IsBlocklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.IsBlocklisted(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, revoked, "expired tokens are not stored")

	revoked, err = bl.IsBlocklisted(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisBlocklist(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bl := NewBlocklist(client)
	require.IsType(t, &RedisBlocklistService{}, bl)

	require.NoError(t, bl.AddToBlocklist(ctx, "jti-1", time.Now().Add(time.Minute)))
	assert.True(t, mr.Exists("auth:blocklist:jti-1"))
	assert.InDelta(t, time.Minute.Seconds(), mr.TTL("auth:blocklist:jti-1").Seconds(), 2)

	revoked, err := bl.IsBlocklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = bl.IsBlocklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisBlocklist_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	bl := NewRedisBlocklistService(client)
	_, err := bl.IsBlocklisted(context.Background(), "jti")
	assert.Error(t, err)
}

func TestNewBlocklist_FallsBackToMemory(t *testing.T) {
	assert.IsType(t, &InMemoryBlocklistService{}, NewBlocklist(nil))
}
