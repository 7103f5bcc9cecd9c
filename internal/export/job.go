package export

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/formexport/internal/countryloader"
	"github.com/rpattn/formexport/internal/csvexport"
	"github.com/rpattn/formexport/internal/domain"
)

// Job is one export in progress. It owns the open CSV writer until Finish.
//
// run is held for the duration of a step or of Finish and guards writer and
// loader. mu only guards state and is never held across I/O, so polling a
// job never waits on the database, the archiver or the mailer.
type Job struct {
	run    sync.Mutex
	writer *csvexport.Writer
	loader *countryloader.CountryLoader

	mu    sync.Mutex
	state domain.ExportJob

	id     string
	scheme string
	csvURI string
}

func newJob(account domain.Account, scheme, filename string, now time.Time) *Job {
	id := uuid.New()
	csvURI := csvexport.FileDestination(scheme, filename)
	return &Job{
		id:     id.String(),
		scheme: scheme,
		csvURI: csvURI,
		state: domain.ExportJob{
			ID:         id,
			Account:    account,
			Filename:   filename,
			CSVURI:     csvURI,
			State:      domain.ExportJobStateCounting,
			EnqueuedAt: now,
			UpdatedAt:  now,
		},
	}
}

// ID returns the job identifier.
func (j *Job) ID() string {
	return j.id
}

// Snapshot returns a copy of the job state safe to hand to other goroutines.
func (j *Job) Snapshot() domain.ExportJob {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// update applies fn to the job state under mu.
func (j *Job) update(now time.Time, fn func(state *domain.ExportJob)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(&j.state)
	j.state.UpdatedAt = now
}

func (j *Job) setState(state domain.ExportJobState, now time.Time) {
	j.update(now, func(st *domain.ExportJob) {
		st.State = state
	})
}

func (j *Job) advance(now time.Time) {
	j.update(now, func(st *domain.ExportJob) {
		st.NextIndex++
	})
}

// closeWriter releases the export file. The caller holds run.
func (j *Job) closeWriter() error {
	if j.writer == nil {
		return nil
	}
	err := j.writer.Close()
	j.writer = nil
	return err
}
