package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDenylist(t *testing.T) {
	clk := testclock.NewClock(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	d := NewMemoryDenylist(clk)
	ctx := context.Background()

	require.NoError(t, d.Revoke(ctx, "jti-1", clk.Now().Add(time.Hour)))
	require.NoError(t, d.Revoke(ctx, "jti-old", clk.Now().Add(-time.Minute)))

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = d.IsRevoked(ctx, "jti-old")
	assert.False(t, revoked)
	revoked, _ = d.IsRevoked(ctx, "unknown")
	assert.False(t, revoked)

	clk.Advance(2 * time.Hour)
	revoked, _ = d.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "jti-2", clk.Now().Add(time.Hour)))
	assert.Len(t, d.revoked, 1)
}

func TestRedisDenylist(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	clk := testclock.NewClock(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	d := NewRedisDenylist(rdb, clk)

	require.NoError(t, d.Revoke(ctx, "jti-1", clk.Now().Add(time.Hour)))
	assert.True(t, mr.Exists("revoked:jti-1"))
	assert.Equal(t, time.Hour, mr.TTL("revoked:jti-1"))

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = d.IsRevoked(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, revoked)

	// already expired tokens are not stored
	require.NoError(t, d.Revoke(ctx, "jti-old", clk.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("revoked:jti-old"))

	mr.FastForward(61 * time.Minute)
	revoked, err = d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.Close()
	_, err = d.IsRevoked(ctx, "jti-1")
	assert.Error(t, err)
}

func TestNewRedisClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), addr, "")
	assert.Error(t, err)
}
