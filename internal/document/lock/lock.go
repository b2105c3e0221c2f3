// Package lock serializes work per participant identity.
package lock

import (
	"context"
	"sync"
	"time"

	dErrors "termo/pkg/domain-errors"
)

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func()

// Locker grants exclusive access to a key until the returned Unlock is called.
// Lock fails with a timeout error when ctx ends before the lock is acquired.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// numShards bounds memory regardless of how many identities are seen; two
// keys sharing a shard simply wait for each other.
const numShards = 128

// DefaultTimeout caps lock acquisition when ctx carries no deadline.
const DefaultTimeout = 5 * time.Second

// ShardedLocker is an in-process Locker. Keys are spread over a fixed set of
// shards by FNV-1a hash.
type ShardedLocker struct {
	shards  [numShards]chan struct{}
	timeout time.Duration
}

// NewShardedLocker returns a ShardedLocker. A zero timeout uses DefaultTimeout.
func NewShardedLocker(timeout time.Duration) *ShardedLocker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	l := &ShardedLocker{timeout: timeout}
	for i := range l.shards {
		l.shards[i] = make(chan struct{}, 1)
	}
	return l
}

func (l *ShardedLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "lock aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	shard := l.shards[hashKey(key)%numShards]
	select {
	case shard <- struct{}{}:
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "timed out waiting for document lock")
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-shard })
	}, nil
}

// hashKey is FNV-1a.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
