package pipeline

import "fmt"

// ErrorCode classifies workflow failures.
type ErrorCode string

const (
	// ErrCodeResolution indicates the step's registry key resolved to nothing.
	ErrCodeResolution ErrorCode = "RESOLUTION_ERROR"
	// ErrCodeStepExecution indicates the step itself failed while running.
	ErrCodeStepExecution ErrorCode = "STEP_EXECUTION_ERROR"
	// ErrCodeCacheWrite indicates an intermediate cache write failed.
	ErrCodeCacheWrite ErrorCode = "CACHE_WRITE_ERROR"
	// ErrCodePersistence indicates the final run record could not be written.
	ErrCodePersistence ErrorCode = "PERSISTENCE_ERROR"
)

// Error is the workflow error type. Resolution and execution errors halt the
// run; cache and persistence errors are logged and swallowed by the engine.
type Error struct {
	Code    ErrorCode
	Step    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewResolutionError reports a registry key with no registered step.
func NewResolutionError(key string) *Error {
	return &Error{
		Code:    ErrCodeResolution,
		Message: fmt.Sprintf("no step registered for key: %s", key),
	}
}

// NewStepExecutionError wraps a failure raised inside a step.
func NewStepExecutionError(stepName string, cause error) *Error {
	return &Error{
		Code:    ErrCodeStepExecution,
		Step:    stepName,
		Message: fmt.Sprintf("error in step %s", stepName),
		Cause:   cause,
	}
}

// NewCacheWriteError wraps an intermediate cache write failure.
func NewCacheWriteError(stepName string, cause error) *Error {
	return &Error{
		Code:    ErrCodeCacheWrite,
		Step:    stepName,
		Message: fmt.Sprintf("could not cache result for step %s", stepName),
		Cause:   cause,
	}
}

// NewPersistenceError wraps a final run record write failure.
func NewPersistenceError(cause error) *Error {
	return &Error{
		Code:    ErrCodePersistence,
		Message: "could not persist final run record",
		Cause:   cause,
	}
}

// IsResolutionError reports whether err is a step resolution failure.
func IsResolutionError(err error) bool {
	wfErr, ok := err.(*Error)
	return ok && wfErr.Code == ErrCodeResolution
}
