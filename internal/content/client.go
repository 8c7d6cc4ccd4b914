package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hearthbakery/storefront/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrNotConfigured = errors.New("content backend is not configured")

const classesQuery = `*[_type == "bakingClass" && startsAt >= now()] | order(startsAt asc) {
  "id": _id,
  title,
  description,
  startsAt,
  endsAt,
  "seats": coalesce(seats, 0),
  price,
  bookingUrl,
  "image": select(defined(image) => {"url": image.asset->url, "altText": image.alt})
}`

const promotionsQuery = `*[_type == "promotion"
  && (!defined(activeFrom) || activeFrom <= now())
  && (!defined(activeUntil) || activeUntil >= now())] | order(_createdAt desc) {
  "id": _id,
  title,
  body,
  "productHandle": product->store.slug.current,
  activeFrom,
  activeUntil,
  "image": select(defined(image) => {"url": image.asset->url, "altText": image.alt})
}`

// Client runs GROQ queries against the content API's query endpoint.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(projectID, dataset, apiVersion, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	baseURL := ""
	if projectID != "" && dataset != "" {
		baseURL = fmt.Sprintf("https://%s.api.sanity.io/v%s/data/query/%s", projectID, strings.TrimPrefix(apiVersion, "v"), dataset)
	}
	return &Client{baseURL: baseURL, token: token, httpClient: httpClient}
}

// NewClientWithURL points the client at an explicit query endpoint.
func NewClientWithURL(baseURL, token string, httpClient *http.Client) *Client {
	c := NewClient("", "", "", token, httpClient)
	c.baseURL = baseURL
	return c
}

func (c *Client) Configured() bool {
	return c.baseURL != ""
}

func (c *Client) Classes(ctx context.Context) ([]domain.ClassSession, error) {
	var out []domain.ClassSession
	if err := c.query(ctx, classesQuery, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.ClassSession{}
	}
	return out, nil
}

func (c *Client) Promotions(ctx context.Context) ([]domain.Promotion, error) {
	var out []domain.Promotion
	if err := c.query(ctx, promotionsQuery, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Promotion{}
	}
	return out, nil
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Description string `json:"description"`
	} `json:"error"`
}

func (c *Client) query(ctx context.Context, groq string, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	u := c.baseURL + "?" + url.Values{"query": {groq}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("content request failed: %w", err)
	}
	defer resp.Body.Close()

	var qr queryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&qr); err != nil {
		return fmt.Errorf("decode content response (%d): %w", resp.StatusCode, err)
	}
	if qr.Error != nil {
		return fmt.Errorf("content query error: %s", qr.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("content backend responded %d", resp.StatusCode)
	}
	if len(qr.Result) == 0 || string(qr.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(qr.Result, out); err != nil {
		return fmt.Errorf("decode content result failed: %w", err)
	}
	return nil
}
