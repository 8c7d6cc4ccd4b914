package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hearthbakery/storefront/internal/domain"
	"github.com/hearthbakery/storefront/internal/service"
	"go.uber.org/zap"
)

const (
	defaultProductPage = 24
	maxProductPage     = 50
)

type CatalogService interface {
	Products(ctx context.Context, first int) ([]domain.Product, error)
	ProductByHandle(ctx context.Context, handle string) (*domain.Product, error)
	Classes(ctx context.Context) ([]domain.ClassSession, error)
	Promotions(ctx context.Context) ([]domain.Promotion, error)
}

type CatalogHandler struct {
	svc     CatalogService
	timeout time.Duration
	logger  *zap.SugaredLogger
}

func NewCatalogHandler(svc CatalogService, timeout time.Duration, logger *zap.SugaredLogger) *CatalogHandler {
	return &CatalogHandler{svc: svc, timeout: timeout, logger: logger}
}

type productsResponse struct {
	OK       bool             `json:"ok"`
	Products []domain.Product `json:"products"`
}

type productResponse struct {
	OK      bool            `json:"ok"`
	Product *domain.Product `json:"product"`
}

type classesResponse struct {
	OK      bool                  `json:"ok"`
	Classes []domain.ClassSession `json:"classes"`
}

type promotionsResponse struct {
	OK         bool               `json:"ok"`
	Promotions []domain.Promotion `json:"promotions"`
}

func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	first := defaultProductPage
	if v := r.URL.Query().Get("first"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxProductPage {
			respondError(w, http.StatusBadRequest, "first must be an integer between 1 and 50")
			return
		}
		first = n
	}

	products, err := h.svc.Products(ctx, first)
	if err != nil {
		h.logger.Errorw("failed to load products", "err", err)
		respondError(w, http.StatusInternalServerError, "Unable to load products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, productsResponse{OK: true, Products: products})
}

func (h *CatalogHandler) Product(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	handle := chi.URLParam(r, "handle")
	product, err := h.svc.ProductByHandle(ctx, handle)
	if errors.Is(err, service.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		h.logger.Errorw("failed to load product", "err", err, "handle", handle)
		respondError(w, http.StatusInternalServerError, "Unable to load product")
		return
	}
	respondJSON(w, http.StatusOK, productResponse{OK: true, Product: product})
}

func (h *CatalogHandler) Classes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	classes, err := h.svc.Classes(ctx)
	if err != nil {
		h.logger.Errorw("failed to load classes", "err", err)
		respondError(w, http.StatusInternalServerError, "Unable to load classes")
		return
	}
	if classes == nil {
		classes = []domain.ClassSession{}
	}
	respondJSON(w, http.StatusOK, classesResponse{OK: true, Classes: classes})
}

func (h *CatalogHandler) Promotions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	promotions, err := h.svc.Promotions(ctx)
	if err != nil {
		h.logger.Errorw("failed to load promotions", "err", err)
		respondError(w, http.StatusInternalServerError, "Unable to load promotions")
		return
	}
	if promotions == nil {
		promotions = []domain.Promotion{}
	}
	respondJSON(w, http.StatusOK, promotionsResponse{OK: true, Promotions: promotions})
}
