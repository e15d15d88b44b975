package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_TopURLs(t *testing.T) {
	var sessions int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/sessions":
			atomic.AddInt32(&sessions, 1)
			fmt.Fprint(w, `{"id":"sess-1"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/sessions/sess-1/search":
			var req struct {
				Query      string `json:"query"`
				MaxResults int    `json:"maxResults"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 3, req.MaxResults)
			fmt.Fprintf(w, `{"urls":["https://a.com/%s","https://b.com"]}`, req.Query)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewClient("test-key", WithBaseURL(server.URL), WithMaxResults(3))

	urls, err := c.TopURLs(context.Background(), "seo")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com/seo", "https://b.com"}, urls)

	// The session is created once and reused.
	_, err = c.TopURLs(context.Background(), "tools")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&sessions))
}

func TestClient_TopURLs_CapsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/sessions" {
			fmt.Fprint(w, `{"id":"sess-1"}`)
			return
		}
		fmt.Fprint(w, `{"urls":["https://1","https://2","https://3"]}`)
	}))
	defer server.Close()

	c := NewClient("test-key", WithBaseURL(server.URL), WithMaxResults(2))

	urls, err := c.TopURLs(context.Background(), "seo")
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestClient_TopURLs_SessionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient("bad-key", WithBaseURL(server.URL))
	_, err := c.TopURLs(context.Background(), "seo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser session")
}

func TestClient_TopURLs_EmptySessionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	c := NewClient("test-key", WithBaseURL(server.URL))
	_, err := c.TopURLs(context.Background(), "seo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no id")
}
