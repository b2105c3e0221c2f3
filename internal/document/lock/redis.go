package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "termo/pkg/domain-errors"
)

const (
	redisKeyPrefix = "termo:lock:"
	// defaultLease must outlive the slowest compose or sign; it only matters
	// when a holder dies without unlocking.
	defaultLease = 30 * time.Second
	retryEvery   = 25 * time.Millisecond
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every instance pointing at the same
// Redis. Each lock is a key set with NX and a lease.
type RedisLocker struct {
	client  redis.UniversalClient
	lease   time.Duration
	timeout time.Duration
}

// RedisOption configures a RedisLocker.
type RedisOption func(*RedisLocker)

// WithLease sets how long an abandoned lock survives.
func WithLease(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.lease = d
		}
	}
}

// WithTimeout caps acquisition when ctx has no deadline.
func WithTimeout(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// NewRedisLocker returns a RedisLocker using client.
func NewRedisLocker(client redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{client: client, lease: defaultLease, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "lock aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	redisKey := redisKeyPrefix + key
	token := uuid.NewString()
	ticker := time.NewTicker(retryEvery)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.lease).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("acquire lock %s", key))
		}
		if ok {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "timed out waiting for document lock")
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
		})
	}, nil
}
