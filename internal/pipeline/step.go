package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Step is one executable unit of work: one value in, one value out.
// Implementations live in the step registry and are resolved by key at
// execution time. params carries the descriptor's free-form options (script
// path and the like); most steps ignore it.
type Step interface {
	// Name returns the step implementation's registry key.
	Name() string

	// Description returns a human-readable summary.
	Description() string

	// Run executes the step with the current workflow data.
	Run(ctx context.Context, in Value, params map[string]any) (Value, error)
}

// Resolver resolves a descriptor's registry key to a Step. Resolution
// failures must be a *Error with ErrCodeResolution so the engine can report
// them as ordinary step failures.
type Resolver interface {
	Resolve(key string) (Step, error)
}

// StepDescriptor names one configured step and how to find its
// implementation. Descriptors are declared before a run and never mutated;
// declaration order is execution order.
type StepDescriptor struct {
	// Name identifies the step within a workflow. Used for logging, cache
	// keys and result keys. Uniqueness is by convention, not enforced.
	Name string `yaml:"name" json:"name"`

	// Uses is the registry key the resolver looks up at execution time.
	Uses string `yaml:"uses" json:"uses"`

	// Description, InputType and OutputType are documentation only.
	Description string `yaml:"description" json:"description"`
	InputType   string `yaml:"input_type" json:"input_type"`
	OutputType  string `yaml:"output_type" json:"output_type"`

	// Enabled steps run; disabled steps are skipped with no side effects.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Params holds free-form per-step options handed to the implementation.
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// stepConfigFile is the on-disk shape of a workflow step list.
type stepConfigFile struct {
	Steps []stepConfigEntry `yaml:"steps" json:"steps"`
}

// stepConfigEntry mirrors StepDescriptor but distinguishes an absent
// enabled flag (defaults true) from an explicit false.
type stepConfigEntry struct {
	Name        string         `yaml:"name" json:"name"`
	Uses        string         `yaml:"uses" json:"uses"`
	Description string         `yaml:"description" json:"description"`
	InputType   string         `yaml:"input_type" json:"input_type"`
	OutputType  string         `yaml:"output_type" json:"output_type"`
	Enabled     *bool          `yaml:"enabled" json:"enabled"`
	Params      map[string]any `yaml:"params" json:"params"`
}

func (e stepConfigEntry) descriptor() StepDescriptor {
	enabled := true
	if e.Enabled != nil {
		enabled = *e.Enabled
	}
	uses := e.Uses
	if uses == "" {
		// A bare entry reuses its name as the registry key.
		uses = e.Name
	}
	return StepDescriptor{
		Name:        e.Name,
		Uses:        uses,
		Description: e.Description,
		InputType:   e.InputType,
		OutputType:  e.OutputType,
		Enabled:     enabled,
		Params:      e.Params,
	}
}

// LoadSteps reads an ordered step list from a YAML or JSON file. Nothing is
// validated against the registry here; a key that resolves to nothing only
// surfaces when the step is reached during execution.
func LoadSteps(path string) ([]StepDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read step config %s: %w", path, err)
	}

	var file stepConfigFile
	if filepath.Ext(path) == ".json" {
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse step config %s: %w", path, err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("failed to parse step config %s: %w", path, err)
		}
	}

	steps := make([]StepDescriptor, 0, len(file.Steps))
	for i, entry := range file.Steps {
		if entry.Name == "" {
			return nil, fmt.Errorf("step config %s: step %d has no name", path, i+1)
		}
		steps = append(steps, entry.descriptor())
	}
	return steps, nil
}
