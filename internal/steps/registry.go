// Package steps provides the step registry and the built-in pipeline step
// implementations. The registry maps string keys to statically registered
// Step values, populated at process start; workflow configuration supplies
// keys only, never code locations.
package steps

import (
	"fmt"
	"sync"

	"seoflow/internal/pipeline"
)

// Registry manages step registration and lookup.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]pipeline.Step
}

// NewRegistry creates an empty step registry.
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]pipeline.Step),
	}
}

// Register registers a step under its own name.
// Returns an error if a step with the same key already exists.
func (r *Registry) Register(s pipeline.Step) error {
	if s == nil {
		return fmt.Errorf("cannot register nil step")
	}

	key := s.Name()
	if key == "" {
		return fmt.Errorf("step key cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[key]; exists {
		return fmt.Errorf("step '%s' is already registered", key)
	}

	r.steps[key] = s
	return nil
}

// MustRegister registers a step and panics on error.
func (r *Registry) MustRegister(s pipeline.Step) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Resolve looks a step up by key at execution time. A missing key is a
// resolution error, which the engine reports as an ordinary step failure.
func (r *Registry) Resolve(key string) (pipeline.Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.steps[key]
	if !exists {
		return nil, pipeline.NewResolutionError(key)
	}
	return s, nil
}

// Has checks whether a key is registered.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.steps[key]
	return exists
}

// Names returns all registered step keys.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered steps.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}
