package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hearthbakery/storefront/internal/domain"
	"github.com/hearthbakery/storefront/internal/repository"
	"github.com/hearthbakery/storefront/internal/shopify"
	"go.uber.org/zap"
)

const maxLineQuantity = 999

type CartCreator interface {
	CreateCart(ctx context.Context, items []domain.CheckoutItem, clientCartID string) (*shopify.Checkout, error)
}

type CheckoutService struct {
	shop   CartCreator
	store  repository.CompletionStore
	logger *zap.SugaredLogger
}

// NewCheckoutService accepts a nil store; CartStatus then fails with
// repository.ErrStoreNotConfigured.
func NewCheckoutService(shop CartCreator, store repository.CompletionStore, logger *zap.SugaredLogger) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CheckoutService{shop: shop, store: store, logger: logger}
}

// CreateCheckout merges duplicate variants and opens a checkout session.
// The request is assumed to be structurally valid.
func (s *CheckoutService) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	items, err := MergeItems(req.Items)
	if err != nil {
		return "", err
	}

	checkout, err := s.shop.CreateCart(ctx, items, req.ClientCartID)
	if err != nil {
		var ue *shopify.UserError
		if errors.As(err, &ue) {
			s.logger.Warnw("checkout rejected by storefront", "message", ue.Message, "field", ue.Field)
			return "", &UpstreamError{Message: ue.Message, Err: err}
		}
		s.logger.Errorw("checkout creation failed", "err", err, "clientCartId", req.ClientCartID)
		return "", &UpstreamError{Message: defaultCheckoutMessage, Err: err}
	}
	if checkout == nil || checkout.CheckoutURL == "" {
		s.logger.Errorw("checkout created without url", "clientCartId", req.ClientCartID)
		return "", &UpstreamError{Message: "Checkout URL missing from response"}
	}

	s.logger.Infow("checkout created", "cartId", checkout.CartID, "clientCartId", req.ClientCartID, "lines", len(items))
	return checkout.CheckoutURL, nil
}

// MergeItems sums quantities of repeated variants, keeping first-seen order.
func MergeItems(items []domain.CheckoutItem) ([]domain.CheckoutItem, error) {
	out := make([]domain.CheckoutItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if i, ok := index[it.VariantID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.VariantID] = len(out)
		out = append(out, it)
	}
	for _, it := range out {
		if it.Quantity > maxLineQuantity {
			return nil, &ValidationError{Message: fmt.Sprintf("quantity for %s exceeds %d", it.VariantID, maxLineQuantity)}
		}
	}
	return out, nil
}

func (s *CheckoutService) CartStatus(ctx context.Context, clientCartID string) (bool, error) {
	if s.store == nil {
		return false, repository.ErrStoreNotConfigured
	}
	rec, err := s.store.Get(ctx, clientCartID)
	if err != nil {
		return false, fmt.Errorf("completion lookup failed: %w", err)
	}
	return rec != nil, nil
}
