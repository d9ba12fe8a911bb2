package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TillKey guards commits against the shared till when several API replicas
// serve the same drawer.
const TillKey = "lock:till"

// ErrBusy is returned when the lock could not be acquired within AcquireTimeout.
var ErrBusy = errors.New("lock: busy")

var releaseScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// Locker provides a Redis-backed distributed lock.
type Locker struct {
	R              *redis.Client
	RetryBackoff   time.Duration
	AcquireTimeout time.Duration
}

// WithLock executes fn while holding a lock for the provided key. The lock is
// released when fn returns, and only if this holder still owns it. Waiting is
// bounded by ctx and AcquireTimeout.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	token := uuid.NewString()

	acquireCtx := ctx
	if l.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, l.AcquireTimeout)
		defer cancel()
	}

	for {
		ok, err := l.R.SetNX(acquireCtx, key, token, ttl).Result()
		if err != nil {
			if acquireCtx.Err() != nil && ctx.Err() == nil {
				return ErrBusy
			}
			return err
		}
		if ok {
			defer l.release(context.WithoutCancel(ctx), key, token)
			return fn(ctx)
		}
		timer := time.NewTimer(retry)
		select {
		case <-acquireCtx.Done():
			timer.Stop()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrBusy
		case <-timer.C:
		}
	}
}

func (l Locker) release(ctx context.Context, key, token string) {
	if err := releaseScript.Run(ctx, l.R, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		_ = l.R.Del(ctx, key).Err()
	}
}
