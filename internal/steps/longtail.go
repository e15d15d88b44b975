package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"seoflow/internal/pipeline"
)

// LongtailExpandKey is the registry key of the long-tail expansion step.
const LongtailExpandKey = "longtail_expand"

const (
	// DefaultChatModel is the completion model used when none is configured.
	DefaultChatModel = "gpt-3.5-turbo"

	defaultChatTemperature float32 = 0.7
	defaultChatMaxTokens           = 1000

	// maxPromptKeywords bounds how many base keywords go into the prompt.
	maxPromptKeywords = 10
)

const longtailSystemPrompt = "You are an SEO expert specializing in long-tail keyword research."

// chatModel is the slice of the model API the step needs. Satisfied by
// *openai.ChatModel; faked in tests.
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// LongtailExpand grows a base keyword list with long-tail variations
// produced by a chat completion model.
type LongtailExpand struct {
	model chatModel
	log   *zap.Logger
}

// NewLongtailExpand creates the expansion step around an existing model.
func NewLongtailExpand(m chatModel, log *zap.Logger) *LongtailExpand {
	if log == nil {
		log = zap.NewNop()
	}
	return &LongtailExpand{model: m, log: log}
}

// NewOpenAILongtailExpand creates the expansion step backed by the OpenAI
// chat API. Model and baseURL fall back to defaults when empty.
func NewOpenAILongtailExpand(ctx context.Context, apiKey, modelName, baseURL string, log *zap.Logger) (*LongtailExpand, error) {
	if modelName == "" {
		modelName = DefaultChatModel
	}
	temperature := defaultChatTemperature
	maxTokens := defaultChatMaxTokens

	cfg := &openai.ChatModelConfig{
		Model:       modelName,
		APIKey:      apiKey,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	m, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewLongtailExpand(m, log), nil
}

// Name returns the step's registry key.
func (s *LongtailExpand) Name() string { return LongtailExpandKey }

// Description returns the step's summary.
func (s *LongtailExpand) Description() string {
	return "Expands keywords with long-tail variations using an LLM"
}

// Run takes the base keyword list and returns it extended with generated
// long-tail variations. The base keywords always come first and the combined
// list is deduplicated case-insensitively.
func (s *LongtailExpand) Run(ctx context.Context, in pipeline.Value, _ map[string]any) (pipeline.Value, error) {
	base, err := in.AsList()
	if err != nil {
		return pipeline.Value{}, fmt.Errorf("longtail expansion expects a keyword list: %w", err)
	}
	base = nonEmpty(base)
	if len(base) == 0 {
		return pipeline.Value{}, fmt.Errorf("keyword list cannot be empty")
	}

	s.log.Info("expanding keywords", zap.Int("base", len(base)))

	msgs := []*schema.Message{
		schema.SystemMessage(longtailSystemPrompt),
		schema.UserMessage(buildLongtailPrompt(base)),
	}
	resp, err := s.model.Generate(ctx, msgs)
	if err != nil {
		return pipeline.Value{}, fmt.Errorf("error generating long-tail keywords: %w", err)
	}

	longtail := parseLongtailLines(resp.Content)
	combined := dedupeFold(append(append([]string{}, base...), longtail...))

	s.log.Info("expanded keywords",
		zap.Int("generated", len(longtail)), zap.Int("total", len(combined)))
	return pipeline.List(combined), nil
}

// buildLongtailPrompt asks for variations of at most maxPromptKeywords base
// keywords; more than that dilutes the completion without adding coverage.
func buildLongtailPrompt(base []string) string {
	prompt := base
	if len(prompt) > maxPromptKeywords {
		prompt = prompt[:maxPromptKeywords]
	}

	var b strings.Builder
	b.WriteString("Generate 3-5 long-tail keyword variations for each of the following keywords. ")
	b.WriteString("Each variation should be 3-7 words long and reflect a realistic search query. ")
	b.WriteString("Return one keyword per line with no numbering or extra commentary.\n\nKeywords:\n")
	for _, kw := range prompt {
		b.WriteString("- ")
		b.WriteString(kw)
		b.WriteByte('\n')
	}
	return b.String()
}

// parseLongtailLines turns the model output into keywords: one per line,
// bullets and numbering stripped, lines shorter than three words dropped.
func parseLongtailLines(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		kw := strings.TrimSpace(line)
		kw = strings.TrimLeft(kw, "-•*1234567890. ")
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if len(strings.Fields(kw)) < 3 {
			continue
		}
		out = append(out, kw)
	}
	return out
}
