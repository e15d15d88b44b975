package pipeline

import (
	"encoding/json"
	"time"
)

// Outcome is the single authoritative record of one workflow execution.
// It is constructed once at the end of Execute and never mutated.
type Outcome struct {
	// RunID uniquely identifies the execution.
	RunID string

	// Success reports whether every enabled step completed.
	Success bool

	// FinalData is the last successfully produced value; nil on failure.
	FinalData *Value

	// StepsExecuted lists the names of steps that actually ran, in
	// execution order. A step that was attempted and failed is not listed.
	StepsExecuted []string

	// ExecutionTime is the wall-clock duration of the whole run.
	ExecutionTime time.Duration

	// ErrorMessage is set iff Success is false, to the first failure.
	ErrorMessage string

	// StepResults maps step name to that step's raw output for every step
	// that completed. Duplicate step names overwrite; see DESIGN.md.
	StepResults map[string]Value

	// StartedAt is the run's start timestamp, used to key the final record.
	StartedAt time.Time
}

// outcomeJSON is the serialized form of an Outcome.
type outcomeJSON struct {
	RunID         string           `json:"run_id"`
	Success       bool             `json:"success"`
	FinalData     *Value           `json:"final_data"`
	StepsExecuted []string         `json:"steps_executed"`
	ExecutionTime float64          `json:"execution_time"`
	ErrorMessage  string           `json:"error_message,omitempty"`
	StepResults   map[string]Value `json:"step_results,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

// MarshalJSON serializes the outcome with execution time in seconds,
// matching the run-record layout.
func (o *Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(outcomeJSON{
		RunID:         o.RunID,
		Success:       o.Success,
		FinalData:     o.FinalData,
		StepsExecuted: o.StepsExecuted,
		ExecutionTime: o.ExecutionTime.Seconds(),
		ErrorMessage:  o.ErrorMessage,
		StepResults:   o.StepResults,
		Timestamp:     o.StartedAt,
	})
}
