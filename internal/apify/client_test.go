package apify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CollectItems(t *testing.T) {
	var polls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/acts/test~actor/runs":
			fmt.Fprint(w, `{"data":{"id":"run-1","status":"RUNNING"}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/v2/actor-runs/run-1":
			// First poll still running, then succeeded.
			if atomic.AddInt32(&polls, 1) == 1 {
				fmt.Fprint(w, `{"data":{"id":"run-1","status":"RUNNING"}}`)
			} else {
				fmt.Fprint(w, `{"data":{"id":"run-1","status":"SUCCEEDED","defaultDatasetId":"ds-1"}}`)
			}
		case r.Method == http.MethodGet && r.URL.Path == "/v2/datasets/ds-1/items":
			fmt.Fprint(w, `[{"keyword":"seo tools"},{"keyword":"keyword research"}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewClient("test-token",
		WithBaseURL(server.URL),
		WithPollInterval(time.Millisecond))

	items, err := c.CollectItems(context.Background(), "test~actor", map[string]any{"urls": []string{"https://example.com"}})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "seo tools", items[0]["keyword"])
}

func TestClient_StartRun_RejectsEmptyRunID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{}}`)
	}))
	defer server.Close()

	c := NewClient("test-token", WithBaseURL(server.URL))
	_, err := c.StartRun(context.Background(), "test~actor", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run id")
}

func TestClient_WaitForRun_TerminalFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"run-1","status":"FAILED"}}`)
	}))
	defer server.Close()

	c := NewClient("test-token", WithBaseURL(server.URL), WithPollInterval(time.Millisecond))
	_, err := c.WaitForRun(context.Background(), "run-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FAILED")
}

func TestClient_WaitForRun_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"run-1","status":"RUNNING"}}`)
	}))
	defer server.Close()

	c := NewClient("test-token",
		WithBaseURL(server.URL),
		WithPollInterval(time.Millisecond),
		WithRunTimeout(10*time.Millisecond))

	_, err := c.WaitForRun(context.Background(), "run-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not finish")
}

func TestClient_WaitForRun_ContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"run-1","status":"RUNNING"}}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient("test-token",
		WithBaseURL(server.URL),
		WithPollInterval(500*time.Millisecond))

	_, err := c.WaitForRun(ctx, "run-1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_ErrorStatusIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid token"}`)
	}))
	defer server.Close()

	c := NewClient("bad-token", WithBaseURL(server.URL))
	_, err := c.GetRun(context.Background(), "run-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid token")
}
