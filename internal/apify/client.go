// Package apify is a minimal client for the actor-run API used by the
// keyword-scrape step: start an actor run, poll it to a terminal status and
// collect the run's default dataset items.
package apify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://api.apify.com"

	defaultRequestTimeout = 30 * time.Second
	defaultPollInterval   = 2 * time.Second
	defaultRunTimeout     = 10 * time.Minute
)

// Terminal run statuses.
const (
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusAborted   = "ABORTED"
	StatusTimedOut  = "TIMED-OUT"
)

// Run describes one actor run.
type Run struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

// Client talks to the actor API over a shared fasthttp client.
type Client struct {
	baseURL      string
	token        string
	http         *fasthttp.Client
	timeout      time.Duration
	pollInterval time.Duration
	runTimeout   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithPollInterval overrides the run polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithRunTimeout bounds how long WaitForRun polls before giving up.
func WithRunTimeout(d time.Duration) Option {
	return func(c *Client) { c.runTimeout = d }
}

// NewClient creates a Client authenticating with the given API token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		http: &fasthttp.Client{
			MaxConnsPerHost:     8,
			MaxIdleConnDuration: 90 * time.Second,
		},
		timeout:      defaultRequestTimeout,
		pollInterval: defaultPollInterval,
		runTimeout:   defaultRunTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartRun starts an actor run with the given input.
func (c *Client) StartRun(ctx context.Context, actorID string, input any) (*Run, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode actor input: %w", err)
	}

	var envelope struct {
		Data Run `json:"data"`
	}
	url := fmt.Sprintf("%s/v2/acts/%s/runs", c.baseURL, actorID)
	if err := c.do(ctx, fasthttp.MethodPost, url, body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to start actor run: %w", err)
	}
	if envelope.Data.ID == "" {
		return nil, fmt.Errorf("actor run response carried no run id")
	}
	return &envelope.Data, nil
}

// GetRun fetches the current state of a run.
func (c *Client) GetRun(ctx context.Context, runID string) (*Run, error) {
	var envelope struct {
		Data Run `json:"data"`
	}
	url := fmt.Sprintf("%s/v2/actor-runs/%s", c.baseURL, runID)
	if err := c.do(ctx, fasthttp.MethodGet, url, nil, &envelope); err != nil {
		return nil, fmt.Errorf("failed to fetch actor run %s: %w", runID, err)
	}
	return &envelope.Data, nil
}

// WaitForRun polls a run until it reaches a terminal status. Only a
// succeeded run is returned without error.
func (c *Client) WaitForRun(ctx context.Context, runID string) (*Run, error) {
	deadline := time.Now().Add(c.runTimeout)
	for {
		run, err := c.GetRun(ctx, runID)
		if err != nil {
			return nil, err
		}

		switch run.Status {
		case StatusSucceeded:
			return run, nil
		case StatusFailed, StatusAborted, StatusTimedOut:
			return nil, fmt.Errorf("actor run %s ended with status %s", runID, run.Status)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("actor run %s did not finish within %s", runID, c.runTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// DatasetItems fetches all items of a dataset as generic JSON objects.
func (c *Client) DatasetItems(ctx context.Context, datasetID string) ([]map[string]any, error) {
	var items []map[string]any
	url := fmt.Sprintf("%s/v2/datasets/%s/items?format=json&clean=true", c.baseURL, datasetID)
	if err := c.do(ctx, fasthttp.MethodGet, url, nil, &items); err != nil {
		return nil, fmt.Errorf("failed to fetch dataset %s items: %w", datasetID, err)
	}
	return items, nil
}

// CollectItems runs the actor to completion and returns its dataset items.
// This is the call shape the keyword-scrape step depends on.
func (c *Client) CollectItems(ctx context.Context, actorID string, input any) ([]map[string]any, error) {
	run, err := c.StartRun(ctx, actorID, input)
	if err != nil {
		return nil, err
	}

	run, err = c.WaitForRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	return c.DatasetItems(ctx, run.DefaultDatasetID)
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
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.token)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return err
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return fmt.Errorf("unexpected status %d: %s", status, truncate(resp.Body(), 200))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
