package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		opsPerSecond uint
		burst        uint
		wantBurst    int
	}{
		{name: "standard", opsPerSecond: 100, burst: 200, wantBurst: 200},
		{name: "zero burst", opsPerSecond: 10, burst: 0, wantBurst: 1},
		{name: "unlimited", opsPerSecond: 0, burst: 0, wantBurst: unlimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.opsPerSecond, tt.burst)
			require.NotNil(t, limiter.limiter)
			assert.Equal(t, tt.wantBurst, limiter.limiter.Burst())
		})
	}
}

func TestAllowExhaustsBurst(t *testing.T) {
	limiter := New(10, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(), "request %d within burst", i)
	}
	assert.False(t, limiter.Allow())

	time.Sleep(110 * time.Millisecond)
	assert.True(t, limiter.Allow())
}

func TestWaitSpreadsOperations(t *testing.T) {
	limiter := New(20, 1)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx))

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 25*time.Millisecond)
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestWaitHonoursContext(t *testing.T) {
	limiter := New(1, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, limiter.Wait(ctx))
}

func TestSetLimit(t *testing.T) {
	limiter := New(1, 1)
	require.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	limiter.SetLimit(0)
	time.Sleep(5 * time.Millisecond)
	assert.True(t, limiter.Allow())
}

func TestUnlimited(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 1000; i++ {
		require.True(t, limiter.Allow(), "request %d", i)
	}
	assert.Greater(t, limiter.Tokens(), float64(1000))
}
