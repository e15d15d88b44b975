package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStep is a minimal step for engine tests.
type stubStep struct {
	name string
	fn   func(ctx context.Context, in Value) (Value, error)
}

func (s *stubStep) Name() string        { return s.name }
func (s *stubStep) Description() string { return "stub step" }
func (s *stubStep) Run(ctx context.Context, in Value, _ map[string]any) (Value, error) {
	return s.fn(ctx, in)
}

// mapResolver resolves steps from a plain map.
type mapResolver map[string]Step

func (m mapResolver) Resolve(key string) (Step, error) {
	s, ok := m[key]
	if !ok {
		return nil, NewResolutionError(key)
	}
	return s, nil
}

// recordingRecorder captures recorder calls and can be made to fail.
type recordingRecorder struct {
	cached    map[string]Value
	persisted []*Outcome

	cacheErr   error
	persistErr error
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{cached: make(map[string]Value)}
}

func (r *recordingRecorder) Cache(stepName string, v Value) error {
	if r.cacheErr != nil {
		return r.cacheErr
	}
	r.cached[stepName] = v
	return nil
}

func (r *recordingRecorder) PersistFinal(o *Outcome) error {
	if r.persistErr != nil {
		return r.persistErr
	}
	r.persisted = append(r.persisted, o)
	return nil
}

func doubleStep() *stubStep {
	return &stubStep{name: "double", fn: func(_ context.Context, in Value) (Value, error) {
		n, err := in.AsNumber()
		if err != nil {
			return Value{}, err
		}
		return Number(n * 2), nil
	}}
}

func stringifyStep() *stubStep {
	return &stubStep{name: "stringify", fn: func(_ context.Context, in Value) (Value, error) {
		n, err := in.AsNumber()
		if err != nil {
			return Value{}, err
		}
		return Text(fmt.Sprintf("%g", n)), nil
	}}
}

// wrapStep brackets whatever value it receives.
func wrapStep() *stubStep {
	return &stubStep{name: "wrap", fn: func(_ context.Context, in Value) (Value, error) {
		return Text(fmt.Sprintf("[%v]", in.Interface())), nil
	}}
}

func failingStep(name, msg string) *stubStep {
	return &stubStep{name: name, fn: func(_ context.Context, in Value) (Value, error) {
		return Value{}, fmt.Errorf("%s", msg)
	}}
}

func testResolver() mapResolver {
	return mapResolver{
		"double":    doubleStep(),
		"stringify": stringifyStep(),
		"wrap":      wrapStep(),
	}
}

func descriptor(name string) StepDescriptor {
	return StepDescriptor{Name: name, Uses: name, Enabled: true}
}

func TestEngine_Execute_ThreadsDataThroughSteps(t *testing.T) {
	eng := New(testResolver())
	eng.RegisterStep(descriptor("double"))
	eng.RegisterStep(descriptor("stringify"))
	eng.RegisterStep(descriptor("wrap"))

	outcome := eng.Execute(context.Background(), Number(5), false)

	require.True(t, outcome.Success)
	require.NotNil(t, outcome.FinalData)
	got, err := outcome.FinalData.AsText()
	require.NoError(t, err)
	assert.Equal(t, "[10]", got)

	assert.Equal(t, []string{"double", "stringify", "wrap"}, outcome.StepsExecuted)
	assert.Len(t, outcome.StepResults, 3)
	assert.Equal(t, Number(10), outcome.StepResults["double"])
	assert.Equal(t, Text("10"), outcome.StepResults["stringify"])
	assert.NotEmpty(t, outcome.RunID)
	assert.Empty(t, outcome.ErrorMessage)
}

func TestEngine_Execute_HaltsAtFirstFailure(t *testing.T) {
	resolver := testResolver()
	resolver["stringify"] = failingStep("stringify", "conversion exploded")

	eng := New(resolver)
	eng.RegisterStep(descriptor("double"))
	eng.RegisterStep(descriptor("stringify"))
	eng.RegisterStep(descriptor("wrap"))

	outcome := eng.Execute(context.Background(), Number(5), false)

	require.False(t, outcome.Success)
	assert.Nil(t, outcome.FinalData)
	// The failing step is not listed as executed.
	assert.Equal(t, []string{"double"}, outcome.StepsExecuted)
	assert.Equal(t, map[string]Value{"double": Number(10)}, outcome.StepResults)
	assert.Contains(t, outcome.ErrorMessage, "stringify")
	assert.Contains(t, outcome.ErrorMessage, "conversion exploded")
	assert.Contains(t, outcome.ErrorMessage, string(ErrCodeStepExecution))
}

func TestEngine_Execute_SkipsDisabledSteps(t *testing.T) {
	eng := New(testResolver())
	eng.RegisterStep(descriptor("double"))
	disabled := descriptor("stringify")
	disabled.Enabled = false
	eng.RegisterStep(disabled)
	eng.RegisterStep(descriptor("wrap"))

	outcome := eng.Execute(context.Background(), Number(5), false)

	require.True(t, outcome.Success)
	got, err := outcome.FinalData.AsText()
	require.NoError(t, err)
	assert.Equal(t, "[10]", got)
	assert.Equal(t, []string{"double", "wrap"}, outcome.StepsExecuted)
	assert.NotContains(t, outcome.StepResults, "stringify")
}

func TestEngine_Execute_EmptyWorkflow(t *testing.T) {
	eng := New(testResolver())

	outcome := eng.Execute(context.Background(), Text("unchanged"), false)

	require.True(t, outcome.Success)
	require.NotNil(t, outcome.FinalData)
	got, err := outcome.FinalData.AsText()
	require.NoError(t, err)
	assert.Equal(t, "unchanged", got)
	assert.Empty(t, outcome.StepsExecuted)
	assert.Empty(t, outcome.StepResults)
}

func TestEngine_Execute_DuplicateNamesBothRun(t *testing.T) {
	eng := New(testResolver())
	eng.RegisterStep(descriptor("double"))
	eng.RegisterStep(descriptor("double"))

	outcome := eng.Execute(context.Background(), Number(3), false)

	require.True(t, outcome.Success)
	got, err := outcome.FinalData.AsNumber()
	require.NoError(t, err)
	assert.Equal(t, float64(12), got)
	assert.Equal(t, []string{"double", "double"}, outcome.StepsExecuted)
	// The later execution's result wins the shared key.
	assert.Equal(t, Number(12), outcome.StepResults["double"])
}

func TestEngine_Execute_ResolutionFailure(t *testing.T) {
	eng := New(testResolver())
	eng.RegisterStep(descriptor("double"))
	eng.RegisterStep(descriptor("no_such_step"))

	outcome := eng.Execute(context.Background(), Number(5), false)

	require.False(t, outcome.Success)
	assert.Equal(t, []string{"double"}, outcome.StepsExecuted)
	assert.Contains(t, outcome.ErrorMessage, "no step registered for key: no_such_step")
}

func TestEngine_Execute_StepPanicBecomesFailure(t *testing.T) {
	resolver := testResolver()
	resolver["panicky"] = &stubStep{name: "panicky", fn: func(_ context.Context, _ Value) (Value, error) {
		panic("boom")
	}}

	eng := New(resolver)
	eng.RegisterStep(descriptor("panicky"))

	outcome := eng.Execute(context.Background(), Number(1), false)

	require.False(t, outcome.Success)
	assert.Contains(t, outcome.ErrorMessage, "step panicked")
	assert.Contains(t, outcome.ErrorMessage, "boom")
}

func TestEngine_Execute_CachesIntermediateResults(t *testing.T) {
	rec := newRecordingRecorder()
	eng := New(testResolver(), WithRecorder(rec))
	eng.RegisterStep(descriptor("double"))
	eng.RegisterStep(descriptor("stringify"))

	outcome := eng.Execute(context.Background(), Number(5), true)

	require.True(t, outcome.Success)
	assert.Equal(t, Number(10), rec.cached["double"])
	assert.Equal(t, Text("10"), rec.cached["stringify"])
	require.Len(t, rec.persisted, 1)
	assert.Equal(t, outcome.RunID, rec.persisted[0].RunID)
}

func TestEngine_Execute_CacheFailureDoesNotFailRun(t *testing.T) {
	rec := newRecordingRecorder()
	rec.cacheErr = fmt.Errorf("disk full")

	eng := New(testResolver(), WithRecorder(rec))
	eng.RegisterStep(descriptor("double"))

	outcome := eng.Execute(context.Background(), Number(5), true)

	require.True(t, outcome.Success)
	got, err := outcome.FinalData.AsNumber()
	require.NoError(t, err)
	assert.Equal(t, float64(10), got)
}

func TestEngine_Execute_PersistFailureDoesNotFailRun(t *testing.T) {
	rec := newRecordingRecorder()
	rec.persistErr = fmt.Errorf("disk full")

	eng := New(testResolver(), WithRecorder(rec))
	eng.RegisterStep(descriptor("double"))

	outcome := eng.Execute(context.Background(), Number(5), false)

	require.True(t, outcome.Success)
	assert.Empty(t, outcome.ErrorMessage)
}

func TestEngine_Execute_NoCachingWhenDisabled(t *testing.T) {
	rec := newRecordingRecorder()
	eng := New(testResolver(), WithRecorder(rec))
	eng.RegisterStep(descriptor("double"))

	outcome := eng.Execute(context.Background(), Number(5), false)

	require.True(t, outcome.Success)
	assert.Empty(t, rec.cached)
	// The final record is written regardless of intermediate caching.
	assert.Len(t, rec.persisted, 1)
}

func TestEngine_Execute_MeasuresExecutionTime(t *testing.T) {
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	ticks := 0
	clock := func() time.Time {
		t := base.Add(time.Duration(ticks) * time.Second)
		ticks++
		return t
	}

	eng := New(testResolver(), WithClock(clock))
	eng.RegisterStep(descriptor("double"))

	outcome := eng.Execute(context.Background(), Number(5), false)

	require.True(t, outcome.Success)
	assert.Equal(t, base, outcome.StartedAt)
	assert.Equal(t, time.Second, outcome.ExecutionTime)
}

func TestEngine_Steps_ReturnsCopy(t *testing.T) {
	eng := New(testResolver())
	eng.RegisterStep(descriptor("double"))

	steps := eng.Steps()
	require.Len(t, steps, 1)
	steps[0].Name = "mutated"

	assert.Equal(t, "double", eng.Steps()[0].Name)
}
