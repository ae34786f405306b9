// Package ratelimit backs echo's rate limiter with redis so every API replica
// shares one budget per caller.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "oralvis-ratelimit-"

// RedisLimiterStore counts requests in fixed one minute windows. It satisfies
// echo's RateLimiterStore.
type RedisLimiterStore struct {
	db         *redis.Client
	limiterKey string
	perMinute  int64
	failOpen   bool
	timeout    time.Duration
	now        func() time.Time
}

type RedisLimiterConfig struct {
	RedisClient *redis.Client
	LimiterKey  string
	PerMinute   int64
	// Allow requests when redis cannot be reached
	FailOpen bool
}

func NewRedisLimitStore(config RedisLimiterConfig) *RedisLimiterStore {
	return &RedisLimiterStore{
		db:         config.RedisClient,
		limiterKey: config.LimiterKey,
		perMinute:  config.PerMinute,
		failOpen:   config.FailOpen,
		timeout:    time.Second,
		now:        time.Now,
	}
}

// key names the counter of identifier's current window.
func (store *RedisLimiterStore) key(identifier string) string {
	window := store.now().Unix() / 60
	return fmt.Sprintf("%s%s-%s-%d", keyPrefix, store.limiterKey, identifier, window)
}

func (store *RedisLimiterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), store.timeout)
	defer cancel()

	key := store.key(identifier)

	// INCR and EXPIRE travel in one MULTI so a counter never outlives its window
	pipe := store.db.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return store.failOpen, err
	}

	return count.Val() <= store.perMinute, nil
}
