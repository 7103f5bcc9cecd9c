package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExportJobState captures where an export job is in its lifecycle.
type ExportJobState string

const (
	ExportJobStateCounting  ExportJobState = "COUNTING"
	ExportJobStateExporting ExportJobState = "EXPORTING"
	ExportJobStateArchiving ExportJobState = "ARCHIVING"
	ExportJobStateNotifying ExportJobState = "NOTIFYING"
	ExportJobStateDone      ExportJobState = "DONE"
	ExportJobStateErrored   ExportJobState = "ERRORED"
)

// Terminal reports whether no further transition can happen.
func (s ExportJobState) Terminal() bool {
	return s == ExportJobStateDone || s == ExportJobStateErrored
}

// ExportJob mirrors the in-memory state of one export for polling clients.
type ExportJob struct {
	ID                uuid.UUID      `json:"id"`
	Account           Account        `json:"account"`
	Filename          string         `json:"filename"`
	CSVURI            string         `json:"csv_uri"`
	ArchiveURI        *string        `json:"archive_uri,omitempty"`
	Total             int            `json:"total"`
	NextIndex         int            `json:"next_index"`
	RowsWritten       int            `json:"rows_written"`
	BytesWritten      int64          `json:"bytes_written"`
	PasswordProtected bool           `json:"password_protected"`
	State             ExportJobState `json:"state"`
	ErrorMessage      *string        `json:"error_message,omitempty"`
	NotificationError *string        `json:"notification_error,omitempty"`
	EnqueuedAt        time.Time      `json:"enqueued_at"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// AuditEntry records who downloaded which export.
type AuditEntry struct {
	ID          int64     `json:"id"`
	AccountID   string    `json:"account_id"`
	AccountName string    `json:"account_name"`
	Filename    string    `json:"filename"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}
