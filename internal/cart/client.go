package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hearthbakery/storefront/internal/domain"
)

// Client calls the storefront's checkout and cart-status endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type checkoutResponse struct {
	OK          bool   `json:"ok"`
	CheckoutURL string `json:"checkoutUrl"`
	Error       string `json:"error"`
}

type statusResponse struct {
	OK        bool   `json:"ok"`
	Completed bool   `json:"completed"`
	Error     string `json:"error"`
}

func (c *Client) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal checkout request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/shopify/checkout", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &CheckoutError{Message: defaultCheckoutMessage, Err: err}
	}
	defer resp.Body.Close()

	var out checkoutResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !out.OK {
		msg := out.Error
		if decodeErr != nil || msg == "" {
			msg = defaultCheckoutMessage
		}
		return "", &CheckoutError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", &CheckoutError{Status: resp.StatusCode, Message: defaultCheckoutMessage, Err: decodeErr}
	}
	if out.CheckoutURL == "" {
		return "", &CheckoutError{Status: resp.StatusCode, Message: "Checkout URL missing from response"}
	}
	return out.CheckoutURL, nil
}

func (c *Client) CartStatus(ctx context.Context, clientCartID string) (bool, error) {
	u := c.baseURL + "/api/cart-status?" + url.Values{"clientCartId": {clientCartID}}.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var out statusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return false, fmt.Errorf("decode cart status (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !out.OK {
		return false, fmt.Errorf("cart status (%d): %s", resp.StatusCode, out.Error)
	}
	return out.Completed, nil
}
