package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_BlocksAfterThreshold(t *testing.T) {
	l := NewLocal(Config{Requests: 2, Window: 60 * time.Second})
	ctx := context.Background()

	ok, err := l.Allow(ctx, "create:tenant-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Allow(ctx, "create:tenant-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Allow(ctx, "create:tenant-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocal_WindowSlides(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	l := NewLocal(Config{Requests: 2, Window: 60 * time.Second})
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	// Just inside the window the oldest hit still counts.
	now = now.Add(59 * time.Second)
	ok, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	now = now.Add(2 * time.Second)
	ok, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocal_KeysAreIndependent(t *testing.T) {
	l := NewLocal(Config{Requests: 1, Window: time.Minute})
	ctx := context.Background()

	ok, err := l.Allow(ctx, "token:tenant-a:acc-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(ctx, "token:tenant-a:acc-1")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = l.Allow(ctx, "token:tenant-b:acc-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocal_ConcurrentBurstAdmitsExactlyMax(t *testing.T) {
	const workers = 40
	const max = 10

	l := NewLocal(Config{Requests: max, Window: time.Minute})
	ctx := context.Background()

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Allow(ctx, "burst")
			assert.NoError(t, err)
			if ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(max), admitted.Load())
}
