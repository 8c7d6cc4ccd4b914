package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBytes = 4 << 20

var (
	ErrNotConfigured   = errors.New("shopify storefront is not configured")
	ErrProductNotFound = errors.New("product not found")
)

// UserError is a validation failure reported by a storefront mutation.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func (e *UserError) Error() string {
	return e.Message
}

// Client talks to the Storefront GraphQL API of a single shop.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

func NewClient(storeDomain, token, apiVersion string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	endpoint := ""
	if storeDomain != "" {
		endpoint = fmt.Sprintf("https://%s/api/%s/graphql.json", strings.TrimSuffix(storeDomain, "/"), apiVersion)
	}
	return &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: httpClient,
	}
}

// NewClientWithEndpoint points the client at an explicit GraphQL URL.
func NewClientWithEndpoint(endpoint, token string, httpClient *http.Client) *Client {
	c := NewClient("", token, "", httpClient)
	c.endpoint = endpoint
	return c
}

func (c *Client) Configured() bool {
	return c.endpoint != "" && c.token != ""
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal graphql request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storefront request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read storefront response failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("storefront responded %d", resp.StatusCode)
	}

	var gr graphQLResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("decode storefront response failed: %w", err)
	}
	if len(gr.Errors) > 0 {
		return fmt.Errorf("storefront graphql error: %s", gr.Errors[0].Message)
	}
	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return errors.New("storefront response has no data")
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("decode storefront data failed: %w", err)
	}
	return nil
}
