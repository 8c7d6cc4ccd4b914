package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T, status int, body string) (*Client, *http.Request) {
	var last http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = *r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClientWithURL(srv.URL, "secret", srv.Client()), &last
}

func TestNewClient_URL(t *testing.T) {
	c := NewClient("abc123", "production", "2023-05-03", "", nil)
	assert.Equal(t, "https://abc123.api.sanity.io/v2023-05-03/data/query/production", c.baseURL)
	assert.False(t, NewClient("", "production", "2023-05-03", "", nil).Configured())
}

func TestClasses_Success(t *testing.T) {
	c, req := setupServer(t, http.StatusOK, `{"result":[
		{"id":"c1","title":"Laminated doughs","startsAt":"2024-09-01T09:00:00Z","endsAt":"2024-09-01T12:00:00Z","seats":8,"price":"$95","image":{"url":"https://cdn/c1.jpg"}},
		{"id":"c2","title":"Bread basics","startsAt":"2024-09-08T09:00:00Z","seats":0,"image":null}
	]}`)

	classes, err := c.Classes(context.Background())
	require.NoError(t, err)
	require.Len(t, classes, 2)

	assert.Equal(t, "Laminated doughs", classes[0].Title)
	assert.Equal(t, time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC), classes[0].StartsAt)
	require.NotNil(t, classes[0].EndsAt)
	assert.Equal(t, 8, classes[0].Seats)
	assert.Equal(t, "https://cdn/c1.jpg", classes[0].Image.URL)
	assert.Nil(t, classes[1].EndsAt)
	assert.Nil(t, classes[1].Image)

	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
	assert.Contains(t, req.URL.Query().Get("query"), `_type == "bakingClass"`)
}

func TestPromotions_EmptyResult(t *testing.T) {
	c, _ := setupServer(t, http.StatusOK, `{"result":null}`)

	promos, err := c.Promotions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, promos)
	assert.Empty(t, promos)
}

func TestQuery_Error(t *testing.T) {
	c, _ := setupServer(t, http.StatusBadRequest, `{"error":{"description":"unexpected token"}}`)

	_, err := c.Promotions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected token")
}

func TestQuery_NotConfigured(t *testing.T) {
	c := NewClient("", "", "", "", nil)
	_, err := c.Classes(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
