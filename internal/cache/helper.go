package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetJSON loads the value at key into dest. Returns false when the key is
// missing or the cache is unavailable.
func GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if client == nil {
		return false
	}
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// SetJSON marshals value and stores it at key with the given TTL. Failures
// are swallowed: the cache is best-effort.
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	client.Set(ctx, key, raw, ttl)
}

// Aside implements the cache-aside pattern: return the cached value at key if
// present, otherwise call load, cache its result, and return it.
func Aside(ctx context.Context, key string, ttl time.Duration, dest interface{}, load func() (interface{}, error)) error {
	if GetJSON(ctx, key, dest) {
		return nil
	}

	value, err := load()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return err
	}

	if client != nil {
		client.Set(ctx, key, raw, ttl)
	}
	return nil
}

// IncrWithTTL atomically increments key and sets expiry on first increment.
// Returns the counter value after the increment.
func IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if client == nil {
		return 0, errors.New("cache unavailable")
	}
	cnt, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if cnt == 1 && ttl > 0 {
		client.Expire(ctx, key, ttl)
	}
	return cnt, nil
}

// DecrFloor decrements key but never below zero. Used when a like is rewound.
func DecrFloor(ctx context.Context, key string) {
	if client == nil {
		return
	}
	cnt, err := client.Decr(ctx, key).Result()
	if err == nil && cnt < 0 {
		client.Set(ctx, key, 0, redis.KeepTTL)
	}
}
