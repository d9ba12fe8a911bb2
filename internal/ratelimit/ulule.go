package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Ulule adapts ulule/limiter to Limiter.
type Ulule struct {
	l *limiter.Limiter
}

// NewUlule builds a limiter from a formatted rate such as "60-M". Counters live
// in Redis when rdb is set so replicas share them, in process memory otherwise.
func NewUlule(rate string, rdb *redis.Client) (*Ulule, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse rate %q: %w", rate, err)
	}
	var store limiter.Store
	if rdb != nil {
		store, err = limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "ratelimit"})
		if err != nil {
			return nil, fmt.Errorf("ratelimit: redis store: %w", err)
		}
	} else {
		store = memory.NewStore()
	}
	return &Ulule{l: limiter.New(store, parsed)}, nil
}

// Allow implements Limiter.
func (u *Ulule) Allow(ctx context.Context, key string) (Result, error) {
	lctx, err := u.l.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Allowed:   !lctx.Reached,
		Limit:     int(lctx.Limit),
		Remaining: int(lctx.Remaining),
		Reset:     time.Unix(lctx.Reset, 0),
	}, nil
}
