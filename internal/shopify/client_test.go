package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hearthbakery/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Token     string
	Query     string
	Variables map[string]any
}

func setupServer(t *testing.T, status int, body string) (*Client, *capturedRequest) {
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Token = r.Header.Get("X-Shopify-Storefront-Access-Token")
		var req graphQLRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		captured.Query = req.Query
		captured.Variables = req.Variables

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewClientWithEndpoint(srv.URL, "tok", srv.Client()), captured
}

func TestNewClient_Endpoint(t *testing.T) {
	c := NewClient("hearth.myshopify.com", "tok", "2024-07", nil)
	assert.Equal(t, "https://hearth.myshopify.com/api/2024-07/graphql.json", c.endpoint)
	assert.True(t, c.Configured())

	assert.False(t, NewClient("", "tok", "2024-07", nil).Configured())
	assert.False(t, NewClient("hearth.myshopify.com", "", "2024-07", nil).Configured())
}

func TestDo_NotConfigured(t *testing.T) {
	c := NewClient("", "", "2024-07", nil)
	_, err := c.Products(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestProducts_Success(t *testing.T) {
	c, captured := setupServer(t, http.StatusOK, `{"data":{"products":{"nodes":[
		{"id":"gid://shopify/Product/1","handle":"sourdough","title":"Sourdough",
		 "featuredImage":{"url":"https://cdn/x.jpg","altText":"loaf"},
		 "priceRange":{"minVariantPrice":{"amount":"8.5","currencyCode":"USD"}},
		 "variants":{"nodes":[{"id":"gid://shopify/ProductVariant/11","title":"Large","availableForSale":true,
		   "quantityAvailable":4,"price":{"amount":"8.5","currencyCode":"USD"},
		   "selectedOptions":[{"name":"Size","value":"Large"}]}]}}
	]}}}`)

	products, err := c.Products(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "sourdough", p.Handle)
	assert.Equal(t, "loaf", p.Image.AltText)
	assert.True(t, p.PriceRange.Amount.Equal(decimal.RequireFromString("8.50")))
	require.Len(t, p.Variants, 1)
	require.NotNil(t, p.Variants[0].QuantityAvailable)
	assert.Equal(t, 4, *p.Variants[0].QuantityAvailable)
	assert.Equal(t, []domain.SelectedOption{{Name: "Size", Value: "Large"}}, p.Variants[0].SelectedOptions)

	assert.Equal(t, "tok", captured.Token)
	assert.Contains(t, captured.Query, "products(first: $first")
	assert.EqualValues(t, 12, captured.Variables["first"])
}

func TestProductByHandle_NotFound(t *testing.T) {
	c, captured := setupServer(t, http.StatusOK, `{"data":{"product":null}}`)

	p, err := c.ProductByHandle(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, p)
	assert.Equal(t, "missing", captured.Variables["handle"])
}

func TestDo_GraphQLErrors(t *testing.T) {
	c, _ := setupServer(t, http.StatusOK, `{"errors":[{"message":"Throttled"}]}`)

	_, err := c.Products(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Throttled")
}

func TestDo_HTTPStatus(t *testing.T) {
	c, _ := setupServer(t, http.StatusUnauthorized, `{}`)

	_, err := c.ProductByHandle(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCreateCart_Success(t *testing.T) {
	c, captured := setupServer(t, http.StatusOK, `{"data":{"cartCreate":{
		"cart":{"id":"gid://shopify/Cart/1","checkoutUrl":"https://hearth.myshopify.com/cart/c/1"},
		"userErrors":[]}}}`)

	items := []domain.CheckoutItem{{VariantID: "gid://shopify/ProductVariant/11", Quantity: 2}}
	out, err := c.CreateCart(context.Background(), items, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://hearth.myshopify.com/cart/c/1", out.CheckoutURL)
	assert.Equal(t, "gid://shopify/Cart/1", out.CartID)

	input := captured.Variables["input"].(map[string]any)
	lines := input["lines"].([]any)
	require.Len(t, lines, 1)
	assert.Equal(t, "gid://shopify/ProductVariant/11", lines[0].(map[string]any)["merchandiseId"])
	assert.EqualValues(t, 2, lines[0].(map[string]any)["quantity"])

	attrs := input["attributes"].([]any)
	require.Len(t, attrs, 1)
	assert.Equal(t, map[string]any{"key": "client_cart_id", "value": "abc123"}, attrs[0])
}

func TestCreateCart_NoClientCartID(t *testing.T) {
	c, captured := setupServer(t, http.StatusOK, `{"data":{"cartCreate":{"cart":{"id":"x","checkoutUrl":"https://u"},"userErrors":[]}}}`)

	_, err := c.CreateCart(context.Background(), []domain.CheckoutItem{{VariantID: "v", Quantity: 1}}, "")
	require.NoError(t, err)

	input := captured.Variables["input"].(map[string]any)
	_, hasAttrs := input["attributes"]
	assert.False(t, hasAttrs)
}

func TestCreateCart_UserErrors(t *testing.T) {
	c, _ := setupServer(t, http.StatusOK, `{"data":{"cartCreate":{"cart":null,
		"userErrors":[{"field":["input","lines","0"],"message":"Merchandise does not exist"},{"field":null,"message":"second"}]}}}`)

	_, err := c.CreateCart(context.Background(), []domain.CheckoutItem{{VariantID: "bad", Quantity: 1}}, "")

	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Merchandise does not exist", ue.Message)
}

func TestCreateCart_MissingCart(t *testing.T) {
	c, _ := setupServer(t, http.StatusOK, `{"data":{"cartCreate":{"cart":null,"userErrors":[]}}}`)

	out, err := c.CreateCart(context.Background(), []domain.CheckoutItem{{VariantID: "v", Quantity: 1}}, "")
	require.NoError(t, err)
	assert.Empty(t, out.CheckoutURL)
}
