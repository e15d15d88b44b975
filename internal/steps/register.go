package steps

import (
	"context"

	"go.uber.org/zap"

	"seoflow/internal/apify"
	"seoflow/internal/config"
	"seoflow/internal/serp"
)

// RegisterDefaults wires the built-in steps into the registry from
// configuration. Steps whose optional credentials are absent are left
// unregistered; a workflow referencing one then fails resolution up front
// instead of half-way through a run.
func RegisterDefaults(ctx context.Context, reg *Registry, cfg *config.Config, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	apifyOpts := []apify.Option{}
	if cfg.Apify.RunTimeout > 0 {
		apifyOpts = append(apifyOpts, apify.WithRunTimeout(cfg.Apify.RunTimeout))
	}
	collector := apify.NewClient(cfg.Apify.Token, apifyOpts...)
	if err := reg.Register(NewKeywordScrape(collector, cfg.Apify.ActorID, log)); err != nil {
		return err
	}

	if cfg.OpenAI.APIKey != "" {
		expand, err := NewOpenAILongtailExpand(ctx, cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, log)
		if err != nil {
			return err
		}
		if err := reg.Register(expand); err != nil {
			return err
		}
	} else {
		log.Warn("OPENAI_API_KEY not set, longtail expansion step unavailable")
	}

	if cfg.Search.APIKey != "" {
		searcher := serp.NewClient(cfg.Search.APIKey, serp.WithMaxResults(cfg.Search.MaxResults))
		if err := reg.Register(NewTopURLs(searcher, log)); err != nil {
			return err
		}
	} else {
		log.Warn("BROWSERBASE_API_KEY not set, top-URL discovery step unavailable")
	}

	return reg.Register(NewJSTransform(log))
}
