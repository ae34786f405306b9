package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestAllowUnreachableRedis(t *testing.T) {
	// nothing listens on the discard port
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:9", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	for _, failOpen := range []bool{true, false} {
		store := NewRedisLimitStore(RedisLimiterConfig{
			RedisClient: client,
			LimiterKey:  "submit",
			PerMinute:   5,
			FailOpen:    failOpen,
		})

		allowed, err := store.Allow("jane@example.com")
		assert.Error(t, err)
		assert.Equal(t, failOpen, allowed)
	}
}

func TestKeyWindows(t *testing.T) {
	store := NewRedisLimitStore(RedisLimiterConfig{LimiterKey: "submit"})
	at := time.Date(2025, 3, 1, 12, 0, 5, 0, time.UTC)
	store.now = func() time.Time { return at }

	first := store.key("jane@example.com")
	assert.Equal(t, fmt.Sprintf("oralvis-ratelimit-submit-jane@example.com-%d", at.Unix()/60), first)

	at = at.Add(50 * time.Second)
	assert.Equal(t, first, store.key("jane@example.com"), "same minute shares a counter")

	at = at.Add(10 * time.Second)
	assert.NotEqual(t, first, store.key("jane@example.com"), "next minute starts fresh")
}
