package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hearthbakery/storefront/internal/domain"
	"github.com/hearthbakery/storefront/internal/service"
	"go.uber.org/zap"
)

type CheckoutService interface {
	CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (string, error)
	CartStatus(ctx context.Context, clientCartID string) (bool, error)
}

type CheckoutHandler struct {
	svc     CheckoutService
	timeout time.Duration
	logger  *zap.SugaredLogger
}

func NewCheckoutHandler(svc CheckoutService, timeout time.Duration, logger *zap.SugaredLogger) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, timeout: timeout, logger: logger}
}

type checkoutResponse struct {
	OK          bool   `json:"ok"`
	CheckoutURL string `json:"checkoutUrl"`
}

type cartStatusResponse struct {
	OK        bool `json:"ok"`
	Completed bool `json:"completed"`
}

func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.CheckoutRequest
	if err := readJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := Validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	url, err := h.svc.CreateCheckout(ctx, req)
	if err != nil {
		var ve *service.ValidationError
		var ue *service.UpstreamError
		switch {
		case errors.As(err, &ve):
			respondError(w, http.StatusBadRequest, ve.Message)
		case errors.As(err, &ue):
			respondError(w, http.StatusInternalServerError, ue.Message)
		default:
			h.logger.Errorw("checkout failed", "err", err)
			respondError(w, http.StatusInternalServerError, "Unable to create checkout")
		}
		return
	}

	respondJSON(w, http.StatusOK, checkoutResponse{OK: true, CheckoutURL: url})
}

func (h *CheckoutHandler) CartStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	clientCartID := r.URL.Query().Get("clientCartId")
	if clientCartID == "" {
		respondError(w, http.StatusBadRequest, "clientCartId is required")
		return
	}

	completed, err := h.svc.CartStatus(ctx, clientCartID)
	if err != nil {
		h.logger.Errorw("cart status lookup failed", "err", err, "clientCartId", clientCartID)
		respondError(w, http.StatusInternalServerError, "Completion store unavailable")
		return
	}

	respondJSON(w, http.StatusOK, cartStatusResponse{OK: true, Completed: completed})
}
