package turn

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Runner executes a Definition synchronously, one step after another, on the
// caller's goroutine. A Runner holds no per-turn state and may be shared.
type Runner[T any] struct {
	def       Definition[T]
	logger    *zap.Logger
	listeners []func(Event)
}

// NewRunner creates a runner for def
func NewRunner[T any](def Definition[T], logger *zap.Logger) *Runner[T] {
	return &Runner[T]{
		def:    def,
		logger: logger.With(zap.String("turn", def.Name)),
	}
}

// OnEvent registers a listener called synchronously for every lifecycle event.
// Listeners must be registered before the runner is shared.
func (r *Runner[T]) OnEvent(fn func(Event)) *Runner[T] {
	r.listeners = append(r.listeners, fn)
	return r
}

// Run executes every step against data. It returns a *StepError when a
// Required step fails; BestEffort failures only show up in the Record.
func (r *Runner[T]) Run(ctx context.Context, data *T) (Record, error) {
	if r.def.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.def.Timeout)
		defer cancel()
	}

	record := Record{
		Definition: r.def.Name,
		State:      StateRunning,
		Steps:      make([]StepExecution, len(r.def.Steps)),
		StartedAt:  time.Now(),
	}
	for i, step := range r.def.Steps {
		record.Steps[i] = StepExecution{ID: step.ID, State: StepStatePending}
	}
	r.emit(Event{Type: EventTurnStarted})

	var failure *StepError
	for i, step := range r.def.Steps {
		if failure != nil || !dependencyMet(record.Steps[:i], step.DependsOn) {
			record.Steps[i].State = StepStateSkipped
			r.emit(Event{Step: step.ID, Type: EventStepSkipped})
			continue
		}

		err := r.runStep(ctx, step, &record.Steps[i], data)
		if err == nil {
			continue
		}

		if step.Policy == BestEffort {
			r.logger.Warn("Best-effort step failed",
				zap.String("stepID", string(step.ID)),
				zap.Error(err))
			continue
		}

		r.logger.Error("Step failed",
			zap.String("stepID", string(step.ID)),
			zap.Error(err))
		failure = &StepError{Step: step.ID, Err: err}
	}

	now := time.Now()
	record.CompletedAt = &now
	if failure != nil {
		record.State = StateFailed
		record.Error = failure.Err.Error()
		r.emit(Event{Type: EventTurnFailed, Err: failure})
		return record, failure
	}

	record.State = StateCompleted
	r.emit(Event{Type: EventTurnCompleted})
	r.logger.Debug("Turn completed", zap.Duration("duration", record.Duration()))
	return record, nil
}

func (r *Runner[T]) runStep(ctx context.Context, step Step[T], exec *StepExecution, data *T) error {
	started := time.Now()
	exec.State = StepStateRunning
	exec.StartedAt = &started
	r.emit(Event{Step: step.ID, Type: EventStepStarted})

	err := ctx.Err()
	if err == nil {
		err = step.Run(ctx, data)
	}

	completed := time.Now()
	exec.CompletedAt = &completed
	if err != nil {
		exec.State = StepStateFailed
		exec.Error = err.Error()
		r.emit(Event{Step: step.ID, Type: EventStepFailed, Err: err})
		return err
	}

	exec.State = StepStateCompleted
	r.emit(Event{Step: step.ID, Type: EventStepCompleted})
	return nil
}

func dependencyMet(done []StepExecution, id StepID) bool {
	if id == "" {
		return true
	}
	for _, exec := range done {
		if exec.ID == id {
			return exec.State == StepStateCompleted
		}
	}
	return false
}

func (r *Runner[T]) emit(event Event) {
	if len(r.listeners) == 0 {
		return
	}
	event.Turn = r.def.Name
	event.Timestamp = time.Now()
	for _, fn := range r.listeners {
		fn(event)
	}
}
