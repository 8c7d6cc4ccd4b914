package repository

import (
	"context"
	"errors"

	"github.com/hearthbakery/storefront/internal/domain"
)

var ErrStoreNotConfigured = errors.New("completion store is not configured")

// CompletionStore records carts whose order has been created.
// Writes overwrite, so replayed webhooks are harmless.
type CompletionStore interface {
	MarkCompleted(ctx context.Context, clientCartID string, rec domain.CompletionRecord) error
	Get(ctx context.Context, clientCartID string) (*domain.CompletionRecord, error)
}
