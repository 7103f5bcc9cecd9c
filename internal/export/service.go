package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rpattn/formexport/internal/archive"
	"github.com/rpattn/formexport/internal/batch"
	"github.com/rpattn/formexport/internal/config"
	"github.com/rpattn/formexport/internal/countryloader"
	"github.com/rpattn/formexport/internal/csvexport"
	"github.com/rpattn/formexport/internal/domain"
	"github.com/rpattn/formexport/internal/events"
	"github.com/rpattn/formexport/internal/handoff"
	"github.com/rpattn/formexport/internal/metrics"
	"github.com/rpattn/formexport/internal/repository"
	"github.com/rpattn/formexport/internal/storage"
)

// FilenamePrefix starts every generated export filename.
const FilenamePrefix = "webform_csv_data-"

var (
	// ErrStepOutOfOrder is returned when a step index skips ahead of the committed cursor.
	ErrStepOutOfOrder = errors.New("export step out of order")
	// ErrJobNotFound is returned for unknown job ids.
	ErrJobNotFound = errors.New("export job not found")
	// ErrExportFailed is returned when the batch did not complete successfully.
	ErrExportFailed = errors.New("an error occurred while exporting submissions")

	errJobNotRunnable = errors.New("export job is no longer runnable")
)

// SettingsSource supplies the current export settings.
type SettingsSource interface {
	Current() config.Settings
}

// Result describes a finished export.
type Result struct {
	Filename          string  `json:"filename"`
	ArchiveURI        string  `json:"archive_uri"`
	Rows              int     `json:"rows"`
	PasswordProtected bool    `json:"password_protected"`
	NotificationError *string `json:"notification_error,omitempty"`
}

// Service runs webform submission exports: count, one step per submission,
// then archive and notify.
type Service struct {
	submissions repository.SubmissionRepository
	titles      repository.NodeTitleRepository
	archives    *archive.Service
	resolver    *storage.Resolver
	settings    SettingsSource

	dispatcher *events.Dispatcher
	handoff    *handoff.Store
	metrics    *metrics.Collector
	runner     *batch.Runner

	location   *time.Location
	jobTimeout time.Duration
	now        func() time.Time
	logger     *slog.Logger

	downloadSigner *downloadSigner

	mu            sync.RWMutex
	jobs          map[string]*Job
	workerCancels sync.Map // map[string]context.CancelFunc
	workers       sync.WaitGroup
}

type Option func(*Service)

func WithJobTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.jobTimeout = timeout
		}
	}
}

// WithLocation sets the timezone collect dates are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithDispatcher(dispatcher *events.Dispatcher) Option {
	return func(s *Service) {
		s.dispatcher = dispatcher
	}
}

func WithHandoffStore(store *handoff.Store) Option {
	return func(s *Service) {
		s.handoff = store
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = collector
	}
}

// WithDownloadTokenTTL customizes the TTL for generated download links.
func WithDownloadTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.downloadSigner = newDownloadSigner(ttl)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(
	submissions repository.SubmissionRepository,
	titles repository.NodeTitleRepository,
	archives *archive.Service,
	resolver *storage.Resolver,
	settings SettingsSource,
	opts ...Option,
) *Service {
	service := &Service{
		submissions: submissions,
		titles:      titles,
		archives:    archives,
		resolver:    resolver,
		settings:    settings,
		location:    time.UTC,
		jobTimeout:  30 * time.Minute,
		now:         time.Now,
		logger:      slog.Default().With("component", "export"),
		jobs:        make(map[string]*Job),
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.dispatcher == nil {
		service.dispatcher = events.NewDispatcher()
	}
	if service.handoff == nil {
		service.handoff = handoff.NewStore(time.Hour)
	}
	if service.downloadSigner == nil {
		service.downloadSigner = newDownloadSigner(5 * time.Minute)
	}
	service.runner = batch.NewRunner(batch.WithProgress(func(completed, total int) {
		if completed == total || completed%500 == 0 {
			service.logger.Debug("export progress", "completed", completed, "total", total)
		}
	}))
	return service
}

// Settings returns the settings currently in effect.
func (s *Service) Settings() config.Settings {
	return s.settings.Current()
}

// Handoff exposes the per-account pending download store.
func (s *Service) Handoff() *handoff.Store {
	return s.handoff
}

// Begin counts the submissions, creates the export file and writes its header.
func (s *Service) Begin(ctx context.Context, account domain.Account) (*Job, error) {
	settings := s.settings.Current()
	now := s.now()
	filename := fmt.Sprintf("%s%d", FilenamePrefix, now.Unix())
	job := newJob(account, settings.TmpFolderScheme, filename, now)
	s.register(job)

	logger := s.logger.With("job_id", job.id, "account", account.AccountName, "filename", filename)

	total, err := s.submissions.Count(ctx, domain.WebformID)
	if err != nil {
		err = fmt.Errorf("count submissions: %w", err)
		s.failJob(job, err)
		return job, err
	}

	if _, err := s.resolver.PrepareDirectory(settings.TmpFolderScheme); err != nil {
		s.failJob(job, err)
		return job, err
	}
	path, err := s.resolver.Realpath(job.csvURI)
	if err != nil {
		err = fmt.Errorf("resolve export file: %w", err)
		s.failJob(job, err)
		return job, err
	}
	writer, err := csvexport.Open(path, s.location)
	if err != nil {
		s.failJob(job, err)
		return job, err
	}
	if _, err := writer.WriteHeader(); err != nil {
		_ = writer.Close()
		s.failJob(job, err)
		return job, err
	}

	job.run.Lock()
	job.writer = writer
	job.loader = countryloader.NewCountryLoader(s.titles, countryloader.Langcode)
	job.run.Unlock()
	job.update(now, func(st *domain.ExportJob) {
		st.Total = total
		st.BytesWritten = writer.BytesWritten()
		st.State = domain.ExportJobStateExporting
	})

	logger.Info("export started", "total", total)
	return job, nil
}

// Step exports the submission at index. Indexes below the committed cursor
// are ignored; an index beyond it is rejected.
func (s *Service) Step(ctx context.Context, job *Job, index int) error {
	job.run.Lock()
	defer job.run.Unlock()

	current := job.Snapshot()
	if current.State != domain.ExportJobStateExporting {
		return fmt.Errorf("%w: state %s", errJobNotRunnable, current.State)
	}
	switch {
	case index < current.NextIndex:
		return nil
	case index > current.NextIndex:
		return fmt.Errorf("%w: got %d, expected %d", ErrStepOutOfOrder, index, current.NextIndex)
	}

	sid, ok, err := s.submissions.SubmissionIDAt(ctx, domain.WebformID, index)
	if err != nil {
		return fmt.Errorf("load submission %d: %w", index, err)
	}
	if !ok {
		s.logger.Warn("submission vanished before export", "job_id", job.id, "index", index)
		job.advance(s.now())
		return nil
	}

	rows, err := s.submissions.FieldRows(ctx, domain.WebformID, sid)
	if err != nil {
		return fmt.Errorf("load submission data %d: %w", sid, err)
	}
	record, err := s.buildRecord(ctx, job, rows)
	if err != nil {
		return err
	}
	if len(record) == 0 {
		job.advance(s.now())
		return nil
	}
	if err := job.writer.AppendRow(record); err != nil {
		return fmt.Errorf("append submission %d: %w", sid, err)
	}
	written := job.writer.BytesWritten()
	job.update(s.now(), func(st *domain.ExportJob) {
		st.NextIndex++
		st.RowsWritten++
		st.BytesWritten = written
	})
	return nil
}

func (s *Service) buildRecord(ctx context.Context, job *Job, rows []domain.FieldRow) (domain.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	record := make(domain.Record, len(rows)+3)
	for _, row := range rows {
		if record.Get(domain.FieldLangcode) == "" && record.Get(domain.FieldCreated) == "" {
			record[domain.FieldLangcode] = row.Langcode
			record[domain.FieldCreated] = fmt.Sprintf("%d", row.Created)
		}
		if row.Name == domain.FieldVote {
			title, err := job.loader.Title(ctx, row.Value)
			if err != nil {
				return nil, err
			}
			if title != "" {
				record[domain.FieldChosenCountry] = title
			}
		}
		record[row.Name] = row.Value
	}
	return record, nil
}

// Finish closes the export file and, when the batch succeeded, archives it and
// raises ArchiveDownloaded for password protected archives.
func (s *Service) Finish(ctx context.Context, job *Job, success bool) (Result, error) {
	job.run.Lock()
	defer job.run.Unlock()

	current := job.Snapshot()
	logger := s.logger.With("job_id", job.id, "account", current.Account.AccountName, "filename", current.Filename)

	if current.State.Terminal() {
		return Result{}, fmt.Errorf("%w: state %s", errJobNotRunnable, current.State)
	}
	if err := job.closeWriter(); err != nil && success {
		logger.Error("closing export file failed", "error", err)
		success = false
	}
	if !success {
		s.markFailed(job, ErrExportFailed)
		return Result{}, ErrExportFailed
	}

	settings := s.settings.Current()
	job.setState(domain.ExportJobStateArchiving, s.now())

	password := ""
	if settings.UseZipPassword {
		generated, err := s.archives.GeneratePassword()
		if err != nil {
			s.markFailed(job, err)
			return Result{}, err
		}
		password = generated
	}

	archiveURI, err := s.archives.CreateZipArchive(ctx, job.scheme, current.Filename, password)
	if err != nil {
		var archiveErr *archive.ArchiveError
		if errors.As(err, &archiveErr) {
			s.metrics.ArchiveFailed(archiveErr.ExitCode)
		} else {
			s.metrics.ArchiveFailed(-1)
		}
		logger.Error("archive creation failed", "error", err)
		s.markFailed(job, err)
		return Result{}, fmt.Errorf("create archive: %w", err)
	}
	job.update(s.now(), func(st *domain.ExportJob) {
		st.ArchiveURI = &archiveURI
		st.PasswordProtected = password != ""
	})

	var notificationErr *string
	if password != "" {
		job.setState(domain.ExportJobStateNotifying, s.now())
		event := events.ArchiveDownloaded{
			Account:  current.Account,
			Password: password,
			Locale:   current.Account.Langcode,
			Filename: current.Filename,
		}
		if err := s.dispatcher.Dispatch(ctx, event); err != nil {
			message := err.Error()
			notificationErr = &message
			logger.Warn("archive notification failed", "event", events.ArchiveDownloadedName, "error", err)
		}
	}

	completed := s.now()
	var done domain.ExportJob
	job.update(completed, func(st *domain.ExportJob) {
		st.NotificationError = notificationErr
		st.CompletedAt = &completed
		st.State = domain.ExportJobStateDone
		done = *st
	})
	logger.Info("export finished", "rows", done.RowsWritten, "encrypted", password != "")

	return Result{
		Filename:          done.Filename,
		ArchiveURI:        archiveURI,
		Rows:              done.RowsWritten,
		PasswordProtected: password != "",
		NotificationError: notificationErr,
	}, nil
}

// Run performs a complete export synchronously.
func (s *Service) Run(ctx context.Context, account domain.Account) (Result, error) {
	job, err := s.Begin(ctx, account)
	if err != nil {
		s.metrics.ObserveExport("failed", 0, 0)
		return Result{}, err
	}
	return s.execute(ctx, job)
}

func (s *Service) execute(ctx context.Context, job *Job) (Result, error) {
	started := s.now()
	var result Result
	err := s.runner.Run(ctx, job.Snapshot().Total,
		func(ctx context.Context, index int) error {
			return s.Step(ctx, job, index)
		},
		func(ctx context.Context, success bool, _ int) error {
			var finishErr error
			result, finishErr = s.Finish(ctx, job, success)
			return finishErr
		},
	)
	elapsed := s.now().Sub(started)
	if err != nil {
		s.metrics.ObserveExport("failed", job.Snapshot().RowsWritten, elapsed)
		return Result{}, err
	}
	s.metrics.ObserveExport("success", result.Rows, elapsed)
	return result, nil
}

// GetJob returns a snapshot of the job with the given id.
func (s *Service) GetJob(id string) (domain.ExportJob, error) {
	s.mu.RLock()
	job, ok := s.jobs[strings.TrimSpace(id)]
	s.mu.RUnlock()
	if !ok {
		return domain.ExportJob{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job.Snapshot(), nil
}

func (s *Service) register(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.jobs[job.id] = job
}

// pruneLocked drops terminal jobs that finished more than a day ago.
func (s *Service) pruneLocked() {
	cutoff := s.now().Add(-24 * time.Hour)
	for id, job := range s.jobs {
		snapshot := job.Snapshot()
		if snapshot.State.Terminal() && snapshot.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}

// failJob releases the job's file and marks it errored. It must not be called
// while the job's run lock is held.
func (s *Service) failJob(job *Job, err error) {
	job.run.Lock()
	_ = job.closeWriter()
	job.run.Unlock()
	s.markFailed(job, err)
}

func (s *Service) markFailed(job *Job, err error) {
	if err == nil {
		return
	}
	message := truncateError(err)
	job.mu.Lock()
	if job.state.State.Terminal() {
		job.mu.Unlock()
		return
	}
	job.state.ErrorMessage = &message
	job.state.State = domain.ExportJobStateErrored
	job.state.UpdatedAt = s.now()
	current := job.state
	job.mu.Unlock()

	s.logger.Error("export job failed",
		"job_id", job.id,
		"account", current.Account.AccountName,
		"filename", current.Filename,
		"error", err,
	)
}

func truncateError(err error) string {
	if err == nil {
		return ""
	}
	const maxLen = 512
	msg := err.Error()
	if len(msg) > maxLen {
		return msg[:maxLen]
	}
	return msg
}
