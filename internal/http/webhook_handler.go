package http

import (
	"context"
	"io"
	"net/http"

	"github.com/hearthbakery/storefront/internal/webhook"
	"go.uber.org/zap"
)

const (
	headerHmac       = "X-Shopify-Hmac-Sha256"
	headerTopic      = "X-Shopify-Topic"
	headerShopDomain = "X-Shopify-Shop-Domain"
)

type WebhookProcessor interface {
	Process(ctx context.Context, req webhook.Request) webhook.Result
}

type WebhookHandler struct {
	processor WebhookProcessor
	logger    *zap.SugaredLogger
}

func NewWebhookHandler(processor WebhookProcessor, logger *zap.SugaredLogger) *WebhookHandler {
	return &WebhookHandler{processor: processor, logger: logger}
}

type okResponse struct {
	OK bool `json:"ok"`
}

// OrdersCreate reads the raw body before anything else so the signature is
// checked over the exact bytes sent.
func (h *WebhookHandler) OrdersCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warnw("failed to read webhook body", "err", err)
		respondJSON(w, http.StatusBadRequest, okResponse{OK: false})
		return
	}

	res := h.processor.Process(r.Context(), webhook.Request{
		Body:       body,
		Signature:  r.Header.Get(headerHmac),
		Topic:      r.Header.Get(headerTopic),
		ShopDomain: r.Header.Get(headerShopDomain),
	})

	respondJSON(w, res.Status, okResponse{OK: res.OK()})
}
