package webhook

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hearthbakery/storefront/internal/domain"
	"github.com/hearthbakery/storefront/internal/repository"
	"github.com/hearthbakery/storefront/internal/shopify"
	"go.uber.org/zap"
)

const TopicOrdersCreate = "orders/create"

type Outcome string

const (
	OutcomeStored        Outcome = "stored"
	OutcomeUnauthorized  Outcome = "unauthorized"
	OutcomeMisconfigured Outcome = "misconfigured"
	OutcomeIgnoredTopic  Outcome = "ignored_topic"
	OutcomeBadPayload    Outcome = "bad_payload"
	OutcomeUncorrelated  Outcome = "uncorrelated"
	OutcomeStoreFailed   Outcome = "store_failed"
)

// Request is one delivery as received on the wire.
type Request struct {
	Body       []byte
	Signature  string
	Topic      string
	ShopDomain string
}

type Result struct {
	Status       int
	Outcome      Outcome
	ClientCartID string
}

func (r Result) OK() bool {
	return r.Status == http.StatusOK
}

type EventPublisher interface {
	PublishCartCompleted(ctx context.Context, ev domain.CartCompleted) error
}

type Config struct {
	Secret     string
	Production bool
}

// Processor verifies order-created deliveries and records the carts they
// complete. It holds no per-request state.
type Processor struct {
	cfg       Config
	store     repository.CompletionStore
	publisher EventPublisher
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewProcessor accepts a nil store or publisher. A nil store fails every
// correlated delivery with a server error.
func NewProcessor(cfg Config, store repository.CompletionStore, publisher EventPublisher, logger *zap.SugaredLogger) *Processor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Processor{
		cfg:       cfg,
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (p *Processor) Process(ctx context.Context, req Request) Result {
	if p.cfg.Secret == "" {
		if p.cfg.Production {
			p.logger.Errorw("webhook secret is not configured in production, rejecting delivery", "topic", req.Topic)
			return Result{Status: http.StatusInternalServerError, Outcome: OutcomeMisconfigured}
		}
		p.logger.Warnw("webhook secret is not configured, skipping signature verification", "topic", req.Topic)
	} else if !VerifySignature(req.Body, req.Signature, p.cfg.Secret) {
		p.logger.Warnw("webhook signature rejected", "topic", req.Topic, "shopDomain", req.ShopDomain)
		return Result{Status: http.StatusUnauthorized, Outcome: OutcomeUnauthorized}
	}

	if req.Topic != TopicOrdersCreate {
		p.logger.Infow("ignoring webhook topic", "topic", req.Topic)
		return Result{Status: http.StatusOK, Outcome: OutcomeIgnoredTopic}
	}

	order, err := ParseOrder(req.Body)
	if err != nil {
		p.logger.Warnw("webhook payload rejected", "err", err)
		return Result{Status: http.StatusBadRequest, Outcome: OutcomeBadPayload}
	}

	clientCartID, found := order.ClientCartID(shopify.ClientCartAttribute)
	if !found {
		p.logger.Infow("order has no client cart id", "orderId", deref(order.ID), "orderNumber", deref(order.OrderNumber))
		return Result{Status: http.StatusOK, Outcome: OutcomeUncorrelated}
	}

	if p.store == nil {
		p.logger.Errorw("completion store unavailable", "err", repository.ErrStoreNotConfigured, "clientCartId", clientCartID)
		return Result{Status: http.StatusInternalServerError, Outcome: OutcomeStoreFailed, ClientCartID: clientCartID}
	}

	completedAt := p.now().UTC()
	rec := domain.CompletionRecord{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CompletedAt: completedAt,
	}
	if err := p.store.MarkCompleted(ctx, clientCartID, rec); err != nil {
		p.logger.Errorw("failed to store cart completion", "err", err, "clientCartId", clientCartID)
		return Result{Status: http.StatusInternalServerError, Outcome: OutcomeStoreFailed, ClientCartID: clientCartID}
	}

	p.logger.Infow("cart completed",
		"orderId", deref(order.ID),
		"orderNumber", deref(order.OrderNumber),
		"shopDomain", req.ShopDomain,
		"topic", req.Topic,
		"clientCartId", clientCartID,
	)

	p.publish(ctx, domain.CartCompleted{
		ClientCartID: clientCartID,
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		ShopDomain:   req.ShopDomain,
		CompletedAt:  completedAt,
	})

	return Result{Status: http.StatusOK, Outcome: OutcomeStored, ClientCartID: clientCartID}
}

func (p *Processor) publish(ctx context.Context, ev domain.CartCompleted) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishCartCompleted(ctx, ev); err != nil {
		if errors.Is(err, context.Canceled) {
			p.logger.Warnw("cart completed event not published, request cancelled", "clientCartId", ev.ClientCartID)
			return
		}
		p.logger.Errorw("failed to publish cart completed event", "err", err, "clientCartId", ev.ClientCartID)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
