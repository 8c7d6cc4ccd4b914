package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hearthbakery/storefront/internal/cache"
	"github.com/hearthbakery/storefront/internal/domain"
	"github.com/hearthbakery/storefront/internal/shopify"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type ProductSource interface {
	Products(ctx context.Context, first int) ([]domain.Product, error)
	ProductByHandle(ctx context.Context, handle string) (*domain.Product, error)
}

type ContentSource interface {
	Classes(ctx context.Context) ([]domain.ClassSession, error)
	Promotions(ctx context.Context) ([]domain.Promotion, error)
}

// CatalogService serves read-only catalog and content data through the
// cache. A nil cache disables caching.
type CatalogService struct {
	products ProductSource
	content  ContentSource
	cache    cache.CatalogCache
	sfg      singleflight.Group // Prevents cache stampede
	logger   *zap.SugaredLogger
}

func NewCatalogService(products ProductSource, content ContentSource, c cache.CatalogCache, logger *zap.SugaredLogger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CatalogService{
		products: products,
		content:  content,
		cache:    c,
		logger:   logger,
	}
}

func (s *CatalogService) Products(ctx context.Context, first int) ([]domain.Product, error) {
	return cached(ctx, s, fmt.Sprintf("products:%d", first), func(ctx context.Context) ([]domain.Product, error) {
		return s.products.Products(ctx, first)
	})
}

func (s *CatalogService) ProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	p, err := cached(ctx, s, "product:"+handle, func(ctx context.Context) (*domain.Product, error) {
		return s.products.ProductByHandle(ctx, handle)
	})
	if errors.Is(err, shopify.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (s *CatalogService) Classes(ctx context.Context) ([]domain.ClassSession, error) {
	return cached(ctx, s, "classes", s.content.Classes)
}

func (s *CatalogService) Promotions(ctx context.Context) ([]domain.Promotion, error) {
	return cached(ctx, s, "promotions", s.content.Promotions)
}

const loadTimeout = 15 * time.Second

// cached serves key from the cache, loading it once for all concurrent
// callers on a miss. The shared load does not inherit any one caller's
// cancellation; each caller gives up when its own context ends.
func cached[T any](ctx context.Context, s *CatalogService, key string, load func(context.Context) (T, error)) (T, error) {
	ch := s.sfg.DoChan(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		var out T
		if s.cache != nil {
			err := s.cache.Get(ctx, key, &out)
			if err == nil {
				return out, nil
			}
			if errors.Is(err, cache.ErrCacheCorrupt) {
				s.evict(ctx, key)
			} else if !errors.Is(err, cache.ErrCacheMiss) {
				s.logger.Warnw("cache get error", "key", key, "err", err) // log cache error but continue
			}
		}

		out, err := load(ctx)
		if err != nil {
			return out, err
		}

		if s.cache != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := s.cache.Set(ctx, key, out); err != nil {
					s.logger.Warnw("cache set error", "key", key, "err", err)
				}
			}()
		}
		return out, nil
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// evict drops an entry that can no longer be decoded, so a failed reload
// does not leave it in place until its TTL runs out.
func (s *CatalogService) evict(ctx context.Context, key string) {
	s.logger.Warnw("evicting undecodable cache entry", "key", key)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warnw("cache delete error", "key", key, "err", err)
	}
}
