package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Fixed is a fixed window limiter delegating counting to a ulule/limiter store.
type Fixed struct {
	Store limiter.Store
}

// NewFixedRedis builds a Fixed limiter whose counters live in Redis.
func NewFixedRedis(client *redis.Client, prefix string) (Fixed, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return Fixed{}, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return Fixed{Store: store}, nil
}

// Allow counts the event in the current window.
func (f Fixed) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	if f.Store == nil {
		return false, 0, time.Now().Add(window), errors.New("ratelimit: store not configured")
	}
	lim := limiter.New(f.Store, limiter.Rate{Period: window, Limit: int64(max)})
	res, err := lim.Get(ctx, key)
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !res.Reached, int(res.Remaining), time.Unix(res.Reset, 0), nil
}

// Strategy names accepted by New.
const (
	StrategySliding = "sliding"
	StrategyFixed   = "fixed"
	StrategyOff     = "off"
)

// New selects a limiter implementation by strategy name. StrategyOff returns nil.
func New(strategy string, client *redis.Client, prefix string) (Allower, error) {
	switch strategy {
	case StrategySliding, "":
		return Sliding{Client: client, Prefix: prefix}, nil
	case StrategyFixed:
		return NewFixedRedis(client, prefix)
	case StrategyOff:
		return nil, nil
	default:
		return nil, fmt.Errorf("ratelimit: unknown strategy %q", strategy)
	}
}
