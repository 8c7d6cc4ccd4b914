package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hearthbakery/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCreateCheckout_Success(t *testing.T) {
	var got domain.CheckoutRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/shopify/checkout", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"checkoutUrl":"https://shop.example/checkouts/c1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", srv.Client())
	url, err := c.CreateCheckout(context.Background(), domain.CheckoutRequest{
		Items:        []domain.CheckoutItem{{VariantID: "v1", Quantity: 2}},
		ClientCartID: "abc123",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/checkouts/c1", url)
	assert.Equal(t, "abc123", got.ClientCartID)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestClientCreateCheckout_ServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"ok":false,"error":"The merchandise is out of stock"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).CreateCheckout(context.Background(), domain.CheckoutRequest{})

	var cerr *CheckoutError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, http.StatusInternalServerError, cerr.Status)
	assert.Equal(t, "The merchandise is out of stock", cerr.Message)
}

func TestClientCreateCheckout_GenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).CreateCheckout(context.Background(), domain.CheckoutRequest{})

	var cerr *CheckoutError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, defaultCheckoutMessage, cerr.Message)
}

func TestClientCreateCheckout_MissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).CreateCheckout(context.Background(), domain.CheckoutRequest{})

	var cerr *CheckoutError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "Checkout URL missing from response", cerr.Message)
}

func TestClientCreateCheckout_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL, nil).CreateCheckout(context.Background(), domain.CheckoutRequest{})

	var cerr *CheckoutError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, defaultCheckoutMessage, cerr.Message)
	assert.NotNil(t, cerr.Unwrap())
}

func TestClientCartStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart-status", r.URL.Path)
		completed := r.URL.Query().Get("clientCartId") == "abc123"
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "completed": completed})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	done, err := c.CartStatus(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = c.CartStatus(context.Background(), "other")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestClientCartStatus_StoreUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"ok":false,"error":"Completion store unavailable"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).CartStatus(context.Background(), "abc123")
	require.ErrorContains(t, err, "Completion store unavailable")
}
