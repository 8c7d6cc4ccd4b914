package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hearthbakery/storefront/internal/cache"
	"github.com/hearthbakery/storefront/internal/config"
	"github.com/hearthbakery/storefront/internal/content"
	h "github.com/hearthbakery/storefront/internal/http"
	"github.com/hearthbakery/storefront/internal/logger"
	"github.com/hearthbakery/storefront/internal/publisher"
	"github.com/hearthbakery/storefront/internal/ratelimiter"
	"github.com/hearthbakery/storefront/internal/repository"
	"github.com/hearthbakery/storefront/internal/service"
	"github.com/hearthbakery/storefront/internal/shopify"
	"github.com/hearthbakery/storefront/internal/webhook"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatalw("server error", "err", err)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Redis backs both completion markers and the catalog cache. Without it
	// the server still starts; cart-status and webhooks answer 500.
	var (
		store        repository.CompletionStore
		catalogCache cache.CatalogCache
	)
	redisClient, err := repository.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Errorw("redis unavailable, completion store disabled", "err", err, "addr", cfg.Redis.Addr)
	} else if redisClient == nil {
		log.Warnw("REDIS_ADDR not set, completion store disabled")
	} else {
		defer redisClient.Close()
		store = repository.NewRedisCompletionStore(redisClient, cfg.Redis.Namespace)
		catalogCache = cache.NewRedisCache(redisClient, cfg.Redis.Namespace, cfg.Redis.CatalogTTL)
		log.Infow("redis connected", "addr", cfg.Redis.Addr, "namespace", cfg.Redis.Namespace)
	}

	var events webhook.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		p := publisher.NewKafkaPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		defer p.Close()
		events = p
		log.Infow("kafka publisher enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	if cfg.Shopify.WebhookSecret == "" {
		if cfg.IsProduction() {
			log.Errorw("SHOPIFY_WEBHOOK_SECRET is not set; order webhooks will be rejected")
		} else {
			log.Warnw("SHOPIFY_WEBHOOK_SECRET is not set; order webhooks are accepted unverified")
		}
	}

	shop := shopify.NewClient(cfg.Shopify.StoreDomain, cfg.Shopify.StorefrontToken, cfg.Shopify.APIVersion, nil)
	if !shop.Configured() {
		log.Warnw("shopify storefront is not configured, checkout and products will fail")
	}
	cms := content.NewClient(cfg.Content.ProjectID, cfg.Content.Dataset, cfg.Content.APIVersion, cfg.Content.Token, nil)

	checkoutSvc := service.NewCheckoutService(shop, store, log)
	catalogSvc := service.NewCatalogService(shop, cms, catalogCache, log)
	processor := webhook.NewProcessor(webhook.Config{
		Secret:     cfg.Shopify.WebhookSecret,
		Production: cfg.IsProduction(),
	}, store, events, log)

	routerCfg := h.RouterConfig{
		Env:            cfg.Env,
		RequestTimeout: cfg.RequestTimeout,
		CORSOrigins:    cfg.CORSOrigins,
	}
	if cfg.RateLimiter.Enabled {
		limiter := ratelimiter.NewFixedWindowLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
		defer limiter.Stop()
		routerCfg.RateLimiter = limiter
	}

	router := h.NewRouter(routerCfg, h.Handlers{
		Checkout: h.NewCheckoutHandler(checkoutSvc, cfg.RequestTimeout, log),
		Webhook:  h.NewWebhookHandler(processor, log),
		Catalog:  h.NewCatalogHandler(catalogSvc, cfg.RequestTimeout, log),
	}, log)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdown := make(chan error, 1)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		log.Infow("signal caught", "signal", s.String())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		shutdown <- srv.Shutdown(ctx)
	}()

	log.Infow("server has started", "addr", cfg.HTTPAddr, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdown; err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Infow("server has stopped", "addr", cfg.HTTPAddr)
	return nil
}
