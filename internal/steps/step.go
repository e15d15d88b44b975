package steps

import (
	"context"

	"seoflow/internal/pipeline"
)

// FuncStep adapts a plain function into a pipeline.Step. Useful for small
// transforms and for tests.
type FuncStep struct {
	name        string
	description string
	fn          func(ctx context.Context, in pipeline.Value) (pipeline.Value, error)
}

// Func wraps fn as a registrable step.
func Func(name, description string, fn func(ctx context.Context, in pipeline.Value) (pipeline.Value, error)) *FuncStep {
	return &FuncStep{name: name, description: description, fn: fn}
}

// Name returns the step's registry key.
func (s *FuncStep) Name() string { return s.name }

// Description returns the step's summary.
func (s *FuncStep) Description() string { return s.description }

// Run invokes the wrapped function. Params are ignored.
func (s *FuncStep) Run(ctx context.Context, in pipeline.Value, _ map[string]any) (pipeline.Value, error) {
	return s.fn(ctx, in)
}
