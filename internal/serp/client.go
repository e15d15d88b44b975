// Package serp is a client for the browser-session search API used by the
// top-URL discovery step: create an automated browser session, then run one
// search per keyword and collect the organic result URLs.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://api.browserbase.com"

	// DefaultMaxResults caps the organic URLs returned per keyword.
	DefaultMaxResults = 10

	defaultRequestTimeout = 60 * time.Second
)

// Client drives browser-session searches over a shared fasthttp client.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	http       *fasthttp.Client
	timeout    time.Duration

	sessionID string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithMaxResults caps URLs returned per keyword.
func WithMaxResults(n int) Option {
	return func(c *Client) { c.maxResults = n }
}

// NewClient creates a Client authenticating with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		maxResults: DefaultMaxResults,
		http: &fasthttp.Client{
			MaxConnsPerHost:     4,
			MaxIdleConnDuration: 90 * time.Second,
		},
		timeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ensureSession lazily creates the browser session shared by all searches
// of one run. Session reuse keeps per-keyword latency down.
func (c *Client) ensureSession(ctx context.Context) error {
	if c.sessionID != "" {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"browserSettings": map[string]any{
			"viewport": map[string]int{"width": 1920, "height": 1080},
		},
	})
	if err != nil {
		return err
	}

	var session struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, fasthttp.MethodPost, c.baseURL+"/v1/sessions", body, &session); err != nil {
		return fmt.Errorf("failed to create browser session: %w", err)
	}
	if session.ID == "" {
		return fmt.Errorf("session response carried no id")
	}
	c.sessionID = session.ID
	return nil
}

// TopURLs searches one keyword and returns its top organic result URLs.
func (c *Client) TopURLs(ctx context.Context, keyword string) ([]string, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{
		"query":      keyword,
		"maxResults": c.maxResults,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		URLs []string `json:"urls"`
	}
	url := fmt.Sprintf("%s/v1/sessions/%s/search", c.baseURL, c.sessionID)
	if err := c.do(ctx, fasthttp.MethodPost, url, body, &result); err != nil {
		return nil, fmt.Errorf("search for %q failed: %w", keyword, err)
	}

	urls := result.URLs
	if len(urls) > c.maxResults {
		urls = urls[:c.maxResults]
	}
	return urls, nil
}

// do issues one request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, url string, body []byte, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.apiKey)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return err
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return fmt.Errorf("unexpected status %d", status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
