package batch

import (
	"context"
	"errors"
	"testing"
)

func TestRunnerRunsStepsInOrder(t *testing.T) {
	var seen []int
	var progress []int
	runner := NewRunner(WithProgress(func(completed, total int) {
		if total != 3 {
			t.Fatalf("unexpected total %d", total)
		}
		progress = append(progress, completed)
	}))

	var finishedSuccess bool
	var finishedCompleted int
	err := runner.Run(context.Background(), 3,
		func(_ context.Context, index int) error {
			seen = append(seen, index)
			return nil
		},
		func(_ context.Context, success bool, completed int) error {
			finishedSuccess = success
			finishedCompleted = completed
			return nil
		},
	)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(seen) != 3 || seen[0] != 0 || seen[2] != 2 {
		t.Fatalf("unexpected step order %v", seen)
	}
	if len(progress) != 3 || progress[2] != 3 {
		t.Fatalf("unexpected progress %v", progress)
	}
	if !finishedSuccess || finishedCompleted != 3 {
		t.Fatalf("unexpected finished call success=%v completed=%d", finishedSuccess, finishedCompleted)
	}
}

func TestRunnerZeroStepsStillFinishes(t *testing.T) {
	called := false
	err := NewRunner().Run(context.Background(), 0, func(context.Context, int) error {
		t.Fatalf("no step expected")
		return nil
	}, func(_ context.Context, success bool, completed int) error {
		called = success && completed == 0
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected successful finish, err=%v called=%v", err, called)
	}
}

func TestRunnerAbortsOnFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	var steps int
	var success = true
	err := NewRunner().Run(context.Background(), 5, func(_ context.Context, index int) error {
		steps++
		if index == 1 {
			return boom
		}
		return nil
	}, func(_ context.Context, ok bool, completed int) error {
		success = ok
		if completed != 1 {
			t.Fatalf("expected 1 completed step, got %d", completed)
		}
		return nil
	})

	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Index != 1 || !errors.Is(err, boom) {
		t.Fatalf("expected StepError at index 1, got %v", err)
	}
	if steps != 2 {
		t.Fatalf("expected 2 step invocations, got %d", steps)
	}
	if success {
		t.Fatalf("finished must observe failure")
	}
}

func TestRunnerStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	finishedCtxAlive := false
	err := NewRunner().Run(ctx, 10, func(_ context.Context, index int) error {
		if index == 2 {
			cancel()
		}
		return nil
	}, func(fctx context.Context, ok bool, _ int) error {
		finishedCtxAlive = fctx.Err() == nil && !ok
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !finishedCtxAlive {
		t.Fatalf("finished should run with a live context after cancellation")
	}
}

func TestRunnerReturnsFinishedError(t *testing.T) {
	archiveErr := errors.New("archive failed")
	err := NewRunner().Run(context.Background(), 1, func(context.Context, int) error { return nil },
		func(context.Context, bool, int) error { return archiveErr })
	if !errors.Is(err, archiveErr) {
		t.Fatalf("expected finished error, got %v", err)
	}
}
