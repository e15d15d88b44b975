// Package pipeline implements the workflow execution engine: an ordered
// list of step descriptors driven strictly sequentially, threading each
// step's output into the next step's input and recording per-step results
// along the way.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder persists step outputs and run outcomes. Cache failures are
// swallowed by the engine; PersistFinal failures are logged and do not flip
// a successful run to failed.
type Recorder interface {
	// Cache writes a best-effort snapshot of one step's output.
	Cache(stepName string, v Value) error

	// PersistFinal writes the durable record of one completed run.
	PersistFinal(o *Outcome) error
}

// NopRecorder discards everything. Used when no durable store is configured.
type NopRecorder struct{}

func (NopRecorder) Cache(string, Value) error   { return nil }
func (NopRecorder) PersistFinal(*Outcome) error { return nil }

// Engine owns the ordered step list and drives execution. It performs no
// concurrency, no retries and no type checking between steps; a step that
// blocks indefinitely blocks the run.
type Engine struct {
	steps    []StepDescriptor
	resolver Resolver
	recorder Recorder
	log      *zap.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder sets the result recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithLogger sets the engine's logger handle.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithClock overrides the engine's time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine resolving step keys through the given resolver.
func New(resolver Resolver, opts ...Option) *Engine {
	e := &Engine{
		resolver: resolver,
		recorder: NopRecorder{},
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterStep appends a step descriptor to the workflow. Appending the same
// name twice creates two independent entries; both execute.
func (e *Engine) RegisterStep(sd StepDescriptor) {
	e.log.Info("registering step", zap.String("step", sd.Name), zap.String("uses", sd.Uses))
	e.steps = append(e.steps, sd)
}

// RegisterStepsFromConfig bulk-loads descriptors from a YAML or JSON file,
// preserving declaration order.
func (e *Engine) RegisterStepsFromConfig(path string) error {
	steps, err := LoadSteps(path)
	if err != nil {
		return err
	}
	for _, sd := range steps {
		e.RegisterStep(sd)
	}
	return nil
}

// Steps returns a copy of the registered descriptors in execution order.
func (e *Engine) Steps() []StepDescriptor {
	out := make([]StepDescriptor, len(e.steps))
	copy(out, e.steps)
	return out
}

// Execute runs every enabled step in registration order, feeding each step's
// output to the next. Execution halts at the first failure. The returned
// Outcome is the only way failures reach the caller; Execute never panics on
// a failing step and never terminates the process.
func (e *Engine) Execute(ctx context.Context, initial Value, persistIntermediate bool) *Outcome {
	start := e.now()
	runID := uuid.NewString()

	executed := make([]string, 0, len(e.steps))
	results := make(map[string]Value, len(e.steps))
	current := initial

	e.log.Info("starting workflow execution",
		zap.String("run_id", runID),
		zap.Int("steps", len(e.steps)),
		zap.String("initial_input", initial.String()))

	for i, sd := range e.steps {
		if !sd.Enabled {
			e.log.Info("skipping disabled step", zap.String("step", sd.Name))
			continue
		}

		e.log.Info("executing step",
			zap.Int("index", i+1),
			zap.Int("total", len(e.steps)),
			zap.String("step", sd.Name),
			zap.String("input_type", sd.InputType),
			zap.String("output_type", sd.OutputType))

		result, err := e.runStep(ctx, sd, current)
		if err != nil {
			stepErr := NewStepExecutionError(sd.Name, err)
			e.log.Error("step failed", zap.String("step", sd.Name), zap.Error(err))
			return &Outcome{
				RunID:         runID,
				Success:       false,
				FinalData:     nil,
				StepsExecuted: executed,
				ExecutionTime: e.now().Sub(start),
				ErrorMessage:  stepErr.Error(),
				StepResults:   results,
				StartedAt:     start,
			}
		}

		current = result
		executed = append(executed, sd.Name)
		results[sd.Name] = result

		if persistIntermediate {
			if err := e.recorder.Cache(sd.Name, result); err != nil {
				// Cache writes are best-effort and must never fail the run.
				e.log.Warn("could not cache step result",
					zap.String("step", sd.Name), zap.Error(err))
			}
		}

		e.log.Info("step completed", zap.String("step", sd.Name))
		e.log.Debug("step output", zap.String("step", sd.Name), zap.String("output", result.String()))
	}

	outcome := &Outcome{
		RunID:         runID,
		Success:       true,
		FinalData:     &current,
		StepsExecuted: executed,
		ExecutionTime: e.now().Sub(start),
		StepResults:   results,
		StartedAt:     start,
	}

	if err := e.recorder.PersistFinal(outcome); err != nil {
		// A failed record write does not retroactively fail the run.
		e.log.Error("could not persist final run record",
			zap.String("run_id", runID), zap.Error(NewPersistenceError(err)))
	}

	e.log.Info("workflow completed",
		zap.String("run_id", runID),
		zap.Duration("execution_time", outcome.ExecutionTime),
		zap.Strings("steps_executed", executed))

	return outcome
}

// runStep resolves and invokes one step. Everything that happens inside the
// invocation, including a panic, is converted into an error at this
// boundary.
func (e *Engine) runStep(ctx context.Context, sd StepDescriptor, in Value) (out Value, err error) {
	step, resolveErr := e.resolver.Resolve(sd.Uses)
	if resolveErr != nil {
		return Value{}, resolveErr
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step panicked: %v", r)
		}
	}()

	return step.Run(ctx, in, sd.Params)
}
