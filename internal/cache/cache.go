package cache

import (
	"context"
	"errors"
)

// CatalogCache stores JSON-encodable catalog responses.
type CatalogCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrCacheCorrupt = errors.New("cached value is not decodable")
)
