package steps

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"seoflow/internal/pipeline"
)

// TopURLsKey is the registry key of the top-URL discovery step.
const TopURLsKey = "top_urls"

const (
	defaultSearchBatchSize = 5
	defaultSearchPause     = 2 * time.Second
	defaultBatchPause      = 5 * time.Second
)

// Searcher runs one keyword search and returns the top organic URLs.
// Implemented by serp.Client; faked in tests.
type Searcher interface {
	TopURLs(ctx context.Context, keyword string) ([]string, error)
}

// TopURLs maps each keyword to its top search result URLs. Searches run
// sequentially in small batches with pauses in between so the search
// backend is not hammered.
type TopURLs struct {
	searcher Searcher
	log      *zap.Logger

	batchSize   int
	searchPause time.Duration
	batchPause  time.Duration
}

// TopURLsOption configures the step.
type TopURLsOption func(*TopURLs)

// WithSearchPauses overrides the inter-search and inter-batch pauses.
// Tests pass zero to run without sleeping.
func WithSearchPauses(search, batch time.Duration) TopURLsOption {
	return func(s *TopURLs) {
		s.searchPause = search
		s.batchPause = batch
	}
}

// WithBatchSize overrides how many keywords run between batch pauses.
func WithBatchSize(n int) TopURLsOption {
	return func(s *TopURLs) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewTopURLs creates the top-URL discovery step.
func NewTopURLs(searcher Searcher, log *zap.Logger, opts ...TopURLsOption) *TopURLs {
	if log == nil {
		log = zap.NewNop()
	}
	s := &TopURLs{
		searcher:    searcher,
		log:         log,
		batchSize:   defaultSearchBatchSize,
		searchPause: defaultSearchPause,
		batchPause:  defaultBatchPause,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step's registry key.
func (s *TopURLs) Name() string { return TopURLsKey }

// Description returns the step's summary.
func (s *TopURLs) Description() string {
	return "Finds the top search result URLs for each keyword"
}

// Run takes a keyword list and returns a map of keyword to its top URLs.
// A failed search logs a warning and yields an empty list for that keyword;
// one flaky query must not sink the whole run.
func (s *TopURLs) Run(ctx context.Context, in pipeline.Value, _ map[string]any) (pipeline.Value, error) {
	keywords, err := in.AsList()
	if err != nil {
		return pipeline.Value{}, fmt.Errorf("top-URL discovery expects a keyword list: %w", err)
	}
	keywords = nonEmpty(keywords)
	if len(keywords) == 0 {
		return pipeline.Value{}, fmt.Errorf("keyword list cannot be empty")
	}

	s.log.Info("discovering top URLs", zap.Int("keywords", len(keywords)))

	results := make(map[string][]string, len(keywords))
	for i, kw := range keywords {
		if err := ctx.Err(); err != nil {
			return pipeline.Value{}, err
		}

		urls, err := s.searcher.TopURLs(ctx, kw)
		if err != nil {
			s.log.Warn("search failed, recording empty result",
				zap.String("keyword", kw), zap.Error(err))
			results[kw] = []string{}
			continue
		}
		results[kw] = urls

		if i == len(keywords)-1 {
			break
		}
		pause := s.searchPause
		if (i+1)%s.batchSize == 0 {
			pause = s.batchPause
		}
		if pause > 0 {
			select {
			case <-ctx.Done():
				return pipeline.Value{}, ctx.Err()
			case <-time.After(pause):
			}
		}
	}

	s.log.Info("discovered top URLs", zap.Int("keywords", len(results)))
	return pipeline.URLMap(results), nil
}
