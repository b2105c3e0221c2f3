package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "termo/pkg/domain-errors"
)

func TestShardedLocker_Exclusive(t *testing.T) {
	l := NewShardedLocker(time.Second)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "12345678901")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestShardedLocker_Timeout(t *testing.T) {
	l := NewShardedLocker(20 * time.Millisecond)

	unlock, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)

	_, err = l.Lock(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))

	unlock()
	unlock() // idempotent

	unlock, err = l.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlock()
}

func TestShardedLocker_CancelledContext(t *testing.T) {
	l := NewShardedLocker(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Lock(ctx, "a")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestShardedLocker_IndependentKeys(t *testing.T) {
	l := NewShardedLocker(50 * time.Millisecond)
	a, b := "11111111111", "22222222222"
	if hashKey(a)%numShards == hashKey(b)%numShards {
		t.Skip("keys share a shard")
	}

	unlockA, err := l.Lock(context.Background(), a)
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := l.Lock(context.Background(), b)
	require.NoError(t, err)
	unlockB()
}
