package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpattn/formexport/internal/domain"
)

// Queue starts an export for account in the background and returns the job
// as soon as its file has been created. On success the archive filename is
// handed to the account's pending download slot.
func (s *Service) Queue(ctx context.Context, account domain.Account) (domain.ExportJob, error) {
	job, err := s.Begin(ctx, account)
	if err != nil {
		s.metrics.ObserveExport("failed", 0, 0)
		return job.Snapshot(), err
	}
	s.launchWorker(job)
	return job.Snapshot(), nil
}

func (s *Service) launchWorker(job *Job) {
	baseCtx, baseCancel := context.WithCancel(context.Background())
	ctx := baseCtx
	cancelFunc := baseCancel
	if s.jobTimeout > 0 {
		timeoutCtx, timeoutCancel := context.WithTimeout(baseCtx, s.jobTimeout)
		ctx = timeoutCtx
		cancelFunc = func() {
			timeoutCancel()
			baseCancel()
		}
	}
	s.workerCancels.Store(job.id, cancelFunc)
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		defer func() {
			cancelFunc()
			s.workerCancels.Delete(job.id)
		}()
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic while processing export job", "job_id", job.id, "panic", rec)
				s.failJob(job, fmt.Errorf("panic: %v", rec))
			}
		}()
		result, err := s.execute(ctx, job)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled):
				s.logger.Warn("export job cancelled", "job_id", job.id)
			case errors.Is(err, context.DeadlineExceeded):
				s.logger.Error("export job timed out", "job_id", job.id, "timeout", s.jobTimeout)
			}
			s.failJob(job, err)
			return
		}
		account := job.Snapshot().Account
		s.handoff.Put(account.ID, result.Filename)
	}()
}

// Cancel stops a running export job.
func (s *Service) Cancel(id string) error {
	if _, err := s.GetJob(id); err != nil {
		return err
	}
	if cancel, ok := s.workerCancels.LoadAndDelete(id); ok {
		if fn, okCast := cancel.(context.CancelFunc); okCast {
			fn()
		}
	}
	return nil
}

// Shutdown cancels every running worker and waits for them to exit or ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	s.workerCancels.Range(func(_, value any) bool {
		if fn, ok := value.(context.CancelFunc); ok {
			fn()
		}
		return true
	})
	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every queued job has finished.
func (s *Service) Wait() {
	s.workers.Wait()
}
