package steps

import (
	"context"
	"fmt"
	"os"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"seoflow/internal/pipeline"
)

// JSTransformKey is the registry key of the JavaScript transform step.
const JSTransformKey = "js_transform"

// JSTransform runs a user-supplied JavaScript snippet against the step
// input. The snippet sees the input as the global `input` and its final
// expression becomes the step output. Each run gets a fresh runtime so
// scripts cannot leak state across steps.
type JSTransform struct {
	log *zap.Logger
}

// NewJSTransform creates the JavaScript transform step.
func NewJSTransform(log *zap.Logger) *JSTransform {
	if log == nil {
		log = zap.NewNop()
	}
	return &JSTransform{log: log}
}

// Name returns the step's registry key.
func (s *JSTransform) Name() string { return JSTransformKey }

// Description returns the step's summary.
func (s *JSTransform) Description() string {
	return "Transforms the step input with a JavaScript snippet"
}

// Run executes the script named by the "source" param (inline code) or the
// "script" param (a file path). Exactly one must be present.
func (s *JSTransform) Run(ctx context.Context, in pipeline.Value, params map[string]any) (pipeline.Value, error) {
	source, err := scriptSource(params)
	if err != nil {
		return pipeline.Value{}, err
	}

	vm := goja.New()
	if err := vm.Set("input", in.Interface()); err != nil {
		return pipeline.Value{}, fmt.Errorf("failed to bind script input: %w", err)
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	result, err := vm.RunString(source)
	close(done)
	if err != nil {
		return pipeline.Value{}, fmt.Errorf("script error: %w", err)
	}
	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return pipeline.Value{}, fmt.Errorf("script produced no value")
	}

	out, err := pipeline.FromInterface(result.Export())
	if err != nil {
		return pipeline.Value{}, fmt.Errorf("script result is not a supported value: %w", err)
	}
	s.log.Debug("script transform complete", zap.String("kind", string(out.Kind())))
	return out, nil
}

// scriptSource resolves the snippet from params: inline "source" wins,
// otherwise "script" names a file to read.
func scriptSource(params map[string]any) (string, error) {
	if raw, ok := params["source"]; ok {
		source, ok := raw.(string)
		if !ok || source == "" {
			return "", fmt.Errorf("'source' parameter must be a non-empty string")
		}
		return source, nil
	}
	if raw, ok := params["script"]; ok {
		path, ok := raw.(string)
		if !ok || path == "" {
			return "", fmt.Errorf("'script' parameter must be a non-empty file path")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read script file: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("either 'source' or 'script' parameter is required")
}
