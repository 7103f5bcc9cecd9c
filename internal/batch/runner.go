package batch

import (
	"context"
	"fmt"
	"log/slog"
)

// Step processes the operation at index. Steps run strictly one after another.
type Step func(ctx context.Context, index int) error

// Finished is called once after the last step or the first failure.
type Finished func(ctx context.Context, success bool, completed int) error

// ProgressFunc observes progress after each completed step.
type ProgressFunc func(completed, total int)

// StepError wraps the failure of one step.
type StepError struct {
	Index int
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("batch step %d: %v", e.Index, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Runner drives a sequence of indexed steps the way a request-driven batch
// API would: one step at a time, aborting the whole batch on the first error.
type Runner struct {
	progress ProgressFunc
	logger   *slog.Logger
}

type Option func(*Runner)

// WithProgress registers a progress observer.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

func NewRunner(opts ...Option) *Runner {
	runner := &Runner{logger: slog.Default().With("component", "batch")}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run executes steps [0, total) and then finished. The returned error is the
// step failure, the cancellation cause, or finished's error, in that order.
func (r *Runner) Run(ctx context.Context, total int, step Step, finished Finished) error {
	completed := 0
	var runErr error
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := step(ctx, i); err != nil {
			runErr = &StepError{Index: i, Err: err}
			break
		}
		completed++
		if r.progress != nil {
			r.progress(completed, total)
		}
	}
	if runErr != nil {
		r.logger.Error("batch aborted", "completed", completed, "total", total, "error", runErr)
	}
	if finished != nil {
		// The finished callback always sees a live context so it can clean up.
		finishCtx := ctx
		if ctx.Err() != nil {
			finishCtx = context.WithoutCancel(ctx)
		}
		if err := finished(finishCtx, runErr == nil, completed); err != nil && runErr == nil {
			return err
		}
	}
	return runErr
}
