package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lockers(t *testing.T) map[string]Locker {
	rc, _ := newTestClient(t)
	return map[string]Locker{
		"redis": NewRedisLocker(rc),
		"local": NewLocalLocker(),
	}
}

func TestLockerMutualExclusion(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var (
				inside  atomic.Int32
				overlap atomic.Bool
				wg      sync.WaitGroup
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					release, err := l.Acquire(ctx, "customer-email:a@example.com", 5*time.Second)
					if err != nil {
						t.Errorf("acquire: %v", err)
						return
					}
					if inside.Add(1) > 1 {
						overlap.Store(true)
					}
					time.Sleep(2 * time.Millisecond)
					inside.Add(-1)
					release()
				}()
			}
			wg.Wait()
			assert.False(t, overlap.Load())
		})
	}
}

func TestLockerHonoursContext(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			release, err := l.Acquire(context.Background(), "k", 5*time.Second)
			require.NoError(t, err)
			defer release()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()
			_, err = l.Acquire(ctx, "k", 5*time.Second)
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		})
	}
}

func TestLockerReleaseIdempotent(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			release, err := l.Acquire(ctx, "k", time.Second)
			require.NoError(t, err)
			release()
			release()

			release2, err := l.Acquire(ctx, "k", time.Second)
			require.NoError(t, err)
			release2()
		})
	}
}

func TestRedisLockerStaleReleaseKeepsNewHolder(t *testing.T) {
	rc, mr := newTestClient(t)
	l := NewRedisLocker(rc)
	ctx := context.Background()

	release1, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	// first holder's lease runs out and someone else takes the lock
	mr.FastForward(2 * time.Second)
	release2, err := l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	release1()
	assert.True(t, mr.Exists("lock:k"))

	release2()
	assert.False(t, mr.Exists("lock:k"))
}

func TestLocalLockerForgetsIdleKeys(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		release, err := l.Acquire(ctx, "customer-email:"+email, time.Second)
		require.NoError(t, err)
		release()
	}
	assert.Equal(t, 0, l.size())

	release, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(waitCtx, "k", time.Second)
	require.Error(t, err)
	assert.Equal(t, 1, l.size())

	release()
	release()
	assert.Equal(t, 0, l.size())
}
