package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hearthbakery/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

const CompletionTTL = 48 * time.Hour

func NewRedisCompletionStore(client *redis.Client, namespace string) *RedisCompletionStore {
	return &RedisCompletionStore{
		client:    client,
		namespace: namespace,
		ttl:       CompletionTTL,
	}
}

type RedisCompletionStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

func (r *RedisCompletionStore) MarkCompleted(ctx context.Context, clientCartID string, rec domain.CompletionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal completion record failed: %w", err)
	}
	if err := r.client.Set(ctx, r.completionKey(clientCartID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCompletionStore) Get(ctx context.Context, clientCartID string) (*domain.CompletionRecord, error) {
	data, err := r.client.Get(ctx, r.completionKey(clientCartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var rec domain.CompletionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal completion record failed: %w", err)
	}
	return &rec, nil
}

func (r *RedisCompletionStore) completionKey(clientCartID string) string {
	return CompletionKey(r.namespace, clientCartID)
}

func CompletionKey(namespace, clientCartID string) string {
	return fmt.Sprintf("%s:cart:completed:%s", namespace, clientCartID)
}
