package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, max int) (*RedisRecipientLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	l := NewRedisRecipientLimiter(NewRedisClient(mr.Addr(), "", 0), max, time.Hour)
	t.Cleanup(func() { _ = l.Close() })
	return l, mr
}

func TestAllowUpToMax(t *testing.T) {
	l, _ := newTestLimiter(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "100")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := l.Allow(ctx, "100")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Allow(ctx, "200")
	require.NoError(t, err)
	assert.True(t, ok, "limits are per recipient")
}

func TestAllowWindowSlides(t *testing.T) {
	l, _ := newTestLimiter(t, 1)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, err := l.Allow(ctx, "100")
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(30 * time.Minute)
	ok, err = l.Allow(ctx, "100")
	require.NoError(t, err)
	assert.False(t, ok)

	now = now.Add(31 * time.Minute)
	ok, err = l.Allow(ctx, "100")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllowSetsExpiry(t *testing.T) {
	l, mr := newTestLimiter(t, 5)

	_, err := l.Allow(context.Background(), "100")
	require.NoError(t, err)

	assert.True(t, mr.Exists(keyPrefix+"100"))
	assert.Equal(t, time.Hour+time.Minute, mr.TTL(keyPrefix+"100"))
}

func TestAllowRedisDown(t *testing.T) {
	l, mr := newTestLimiter(t, 5)
	mr.Close()

	_, err := l.Allow(context.Background(), "100")
	assert.Error(t, err)
}
