package domain

import (
	"github.com/shopspring/decimal"
)

type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
}

// DisplayMetadata is presentational only and never used for pricing.
type DisplayMetadata struct {
	ProductTitle string `json:"productTitle"`
	VariantTitle string `json:"variantTitle,omitempty"`
	Handle       string `json:"handle,omitempty"`
	Image        *Image `json:"image,omitempty"`
}

// CartLine is one purchasable entry keyed by VariantID.
// AvailableQuantity is nil when the catalog did not report stock.
type CartLine struct {
	VariantID         string           `json:"variantId"`
	UnitPrice         Money            `json:"unitPrice"`
	Quantity          int              `json:"quantity"`
	SelectedOptions   []SelectedOption `json:"selectedOptions,omitempty"`
	AvailableQuantity *int             `json:"availableQuantity,omitempty"`
	Display           DisplayMetadata  `json:"displayMetadata"`
}

// Clamp bounds q to the line's stock ceiling when one is known.
func (l CartLine) Clamp(q int) int {
	if l.AvailableQuantity != nil && q > *l.AvailableQuantity {
		return *l.AvailableQuantity
	}
	return q
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Amount.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CheckoutItem is the only part of a line sent to the checkout API.
type CheckoutItem struct {
	VariantID string `json:"variantId" validate:"required,max=256"`
	Quantity  int    `json:"quantity" validate:"gt=0,lte=999"`
}

// CheckoutRequest is the body of POST /api/shopify/checkout.
type CheckoutRequest struct {
	Items        []CheckoutItem `json:"items" validate:"required,min=1,max=100,dive"`
	ClientCartID string         `json:"clientCartId,omitempty" validate:"omitempty,max=128"`
}
