package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
	"go.uber.org/zap"

	"seoflow/internal/pipeline"
)

// KeywordScrapeKey is the registry key of the keyword-scrape step.
const KeywordScrapeKey = "keyword_scrape"

// keywordPaths are the dataset item fields probed for a keyword, in
// priority order.
var keywordPaths = []string{"keyword", "keywords", "term", "query", "text", "title", "name"}

// ItemCollector runs the scraping actor and returns its dataset items.
// Implemented by apify.Client; faked in tests.
type ItemCollector interface {
	CollectItems(ctx context.Context, actorID string, input any) ([]map[string]any, error)
}

// KeywordScrape extracts keywords from a website by running a scraping
// actor against its URL and probing the resulting dataset items.
type KeywordScrape struct {
	collector ItemCollector
	actorID   string
	log       *zap.Logger

	paths []jp.Expr
}

// NewKeywordScrape creates the keyword-scrape step.
func NewKeywordScrape(collector ItemCollector, actorID string, log *zap.Logger) *KeywordScrape {
	if log == nil {
		log = zap.NewNop()
	}
	paths := make([]jp.Expr, 0, len(keywordPaths))
	for _, field := range keywordPaths {
		// The field names are constants; ParseString cannot fail on them.
		expr, err := jp.ParseString("$." + field)
		if err != nil {
			panic(err)
		}
		paths = append(paths, expr)
	}
	return &KeywordScrape{
		collector: collector,
		actorID:   actorID,
		log:       log,
		paths:     paths,
	}
}

// Name returns the step's registry key.
func (s *KeywordScrape) Name() string { return KeywordScrapeKey }

// Description returns the step's summary.
func (s *KeywordScrape) Description() string {
	return "Extracts keywords from a website URL using the scraping actor"
}

// Run takes a website URL and produces the list of unique keywords found in
// the actor's dataset.
func (s *KeywordScrape) Run(ctx context.Context, in pipeline.Value, _ map[string]any) (pipeline.Value, error) {
	url, err := in.AsText()
	if err != nil {
		return pipeline.Value{}, fmt.Errorf("keyword scrape expects a URL: %w", err)
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return pipeline.Value{}, fmt.Errorf("URL cannot be empty")
	}

	s.log.Info("starting keyword extraction", zap.String("url", url))

	input := map[string]any{
		"urls":               []string{url},
		"proxyConfiguration": map[string]any{},
	}
	items, err := s.collector.CollectItems(ctx, s.actorID, input)
	if err != nil {
		return pipeline.Value{}, fmt.Errorf("error extracting keywords: %w", err)
	}

	keywords := make([]string, 0, len(items))
	for _, item := range items {
		if kw := s.extractKeyword(item); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	unique := dedupe(keywords)
	s.log.Info("extracted keywords",
		zap.Int("items", len(items)), zap.Int("unique", len(unique)))
	return pipeline.List(unique), nil
}

// extractKeyword pulls a single keyword out of one dataset item: known
// fields first, then page HTML, then any string field, then the item's
// string form.
func (s *KeywordScrape) extractKeyword(item map[string]any) string {
	for _, path := range s.paths {
		for _, match := range path.Get(item) {
			if kw := firstString(match); kw != "" {
				return kw
			}
		}
	}

	// Items carrying raw page HTML: take the title or meta keywords.
	if raw, ok := item["html"].(string); ok {
		if kws := htmlKeywords(raw); len(kws) > 0 {
			return kws[0]
		}
	}

	// No known field matched: fall back to the first string value, walking
	// keys in sorted order so extraction stays deterministic.
	for _, key := range pipeline.SortedKeys(item) {
		if str, ok := item[key].(string); ok {
			if kw := strings.TrimSpace(str); kw != "" {
				return kw
			}
		}
	}

	if len(item) > 0 {
		return strings.TrimSpace(sortedItemString(item))
	}
	return ""
}

// firstString unwraps a probed field value: a string directly, or the first
// string of an array.
func firstString(match any) string {
	switch t := match.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		if len(t) > 0 {
			return strings.TrimSpace(fmt.Sprint(t[0]))
		}
	case []string:
		if len(t) > 0 {
			return strings.TrimSpace(t[0])
		}
	}
	return ""
}

// sortedItemString renders an item with stable key order.
func sortedItemString(item map[string]any) string {
	keys := pipeline.SortedKeys(item)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", k, item[k]))
	}
	return strings.Join(parts, " ")
}
