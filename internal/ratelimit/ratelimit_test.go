package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientKeyPrefersForwardedForHead(t *testing.T) {
	assert.Equal(t, "10.0.0.1", ClientKey("10.0.0.1, 10.0.0.2", "192.168.1.1:443"))
}

func TestClientKeyFallsBackToPeerAddr(t *testing.T) {
	assert.Equal(t, "192.168.1.1:443", ClientKey("", "192.168.1.1:443"))
}

func TestAllowPermitsUpToMax(t *testing.T) {
	l, err := New("", 60, 3)
	require.NoError(t, err)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.clock = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		res := l.Allow(context.Background(), "client-a")
		assert.True(t, res.Allowed, "request %d should be allowed", i)
	}

	res := l.Allow(context.Background(), "client-a")
	assert.False(t, res.Allowed, "fourth request should exceed max=3")
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestAllowIsolatesDistinctKeys(t *testing.T) {
	l, err := New("", 60, 1)
	require.NoError(t, err)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "client-a").Allowed)
	assert.True(t, l.Allow(ctx, "client-b").Allowed, "distinct clients have independent windows")
	assert.False(t, l.Allow(ctx, "client-a").Allowed)
}

func TestAllowForgetsHitsOutsideTheWindow(t *testing.T) {
	l, err := New("", 10, 1)
	require.NoError(t, err)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.clock = func() time.Time { return now }

	assert.True(t, l.Allow(context.Background(), "client-a").Allowed)
	assert.False(t, l.Allow(context.Background(), "client-a").Allowed)

	l.clock = func() time.Time { return now.Add(11 * time.Second) }
	res := l.Allow(context.Background(), "client-a")
	assert.True(t, res.Allowed, "hit outside the 10s window should have been dropped")
}

func TestAllowRetryAfterShrinksTowardZero(t *testing.T) {
	l, err := New("", 5, 1)
	require.NoError(t, err)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.clock = func() time.Time { return now }
	l.Allow(context.Background(), "client-a")

	l.clock = func() time.Time { return now.Add(3 * time.Second) }
	res := l.Allow(context.Background(), "client-a")
	assert.False(t, res.Allowed)
	assert.LessOrEqual(t, res.RetryAfter, 2*time.Second)
}
