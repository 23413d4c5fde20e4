package turn

import (
	"context"
	"fmt"
	"time"
)

// State represents the current state of a turn
type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// StepState represents the state of an individual step
type StepState string

const (
	StepStatePending   StepState = "pending"
	StepStateRunning   StepState = "running"
	StepStateCompleted StepState = "completed"
	StepStateFailed    StepState = "failed"
	StepStateSkipped   StepState = "skipped"
)

// StepID uniquely identifies a step within a definition
type StepID string

// Policy decides what a step failure does to the rest of the turn
type Policy int

const (
	// Required failures abort the turn; later steps are skipped.
	Required Policy = iota
	// BestEffort failures are recorded and the turn carries on.
	BestEffort
)

func (p Policy) String() string {
	if p == BestEffort {
		return "best_effort"
	}
	return "required"
}

// Step is one unit of work operating on the turn's shared data. When DependsOn
// names an earlier step that did not complete, the step is skipped.
type Step[T any] struct {
	ID        StepID
	Policy    Policy
	DependsOn StepID
	Run       func(ctx context.Context, data *T) error
}

// Definition is an ordered list of steps plus an overall deadline
type Definition[T any] struct {
	Name    string
	Steps   []Step[T]
	Timeout time.Duration
}

// StepExecution represents the execution state of a step
type StepExecution struct {
	ID          StepID     `json:"id"`
	State       StepState  `json:"state"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Record is the outcome of one Run
type Record struct {
	Definition  string          `json:"definition"`
	State       State           `json:"state"`
	Steps       []StepExecution `json:"steps"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Duration reports how long the turn ran
func (r Record) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Step returns the execution entry for id
func (r Record) Step(id StepID) (StepExecution, bool) {
	for _, s := range r.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return StepExecution{}, false
}

// StepError is returned by Run when a required step fails
type StepError struct {
	Step StepID
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Event represents an event in the turn lifecycle
type Event struct {
	Turn      string    `json:"turn"`
	Step      StepID    `json:"step,omitempty"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Err       error     `json:"-"`
}

// Event types
const (
	EventTurnStarted   = "turn_started"
	EventTurnCompleted = "turn_completed"
	EventTurnFailed    = "turn_failed"
	EventStepStarted   = "step_started"
	EventStepCompleted = "step_completed"
	EventStepFailed    = "step_failed"
	EventStepSkipped   = "step_skipped"
)
