package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxJitter = time.Minute

func NewRedisCache(client *redis.Client, namespace string, baseTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    client,
		namespace: namespace,
		baseTTL:   baseTTL,
	}
}

type RedisCache struct {
	client    *redis.Client
	namespace string
	baseTTL   time.Duration
}

func (r *RedisCache) Get(ctx context.Context, key string, dest any) error {
	data, err := r.client.Get(ctx, r.cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	return nil
}

// Set stores value for the base TTL plus up to a minute of jitter so entries
// written together do not expire together.
func (r *RedisCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cached value failed: %w", err)
	}

	jitter := time.Duration(rand.Int63n(int64(maxJitter)))
	if err := r.client.Set(ctx, r.cacheKey(key), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) cacheKey(key string) string {
	return fmt.Sprintf("%s:catalog:%s", r.namespace, key)
}
