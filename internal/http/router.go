package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hearthbakery/storefront/internal/ratelimiter"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Env            string
	RequestTimeout time.Duration
	CORSOrigins    []string
	RateLimiter    ratelimiter.Limiter // nil disables rate limiting
}

type Handlers struct {
	Checkout *CheckoutHandler
	Webhook  *WebhookHandler
	Catalog  *CatalogHandler
}

func NewRouter(cfg RouterConfig, h Handlers, logger *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"ok": true, "status": "ok", "env": cfg.Env})
	})

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(RateLimit(cfg.RateLimiter))
		}
		r.Use(middleware.Timeout(cfg.RequestTimeout))

		r.Post("/shopify/checkout", h.Checkout.Create)
		r.Get("/cart-status", h.Checkout.CartStatus)
		r.Post("/shopify/webhooks/orders-create", h.Webhook.OrdersCreate)

		r.Get("/products", h.Catalog.Products)
		r.Get("/products/{handle}", h.Catalog.Product)
		r.Get("/classes", h.Catalog.Classes)
		r.Get("/promotions", h.Catalog.Promotions)
	})

	return otelhttp.NewHandler(r, "storefront")
}
