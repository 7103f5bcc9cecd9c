package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rpattn/formexport/internal/domain"
)

// DBTX is the subset of pgxpool.Pool and pgx.Tx used by the repositories.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SubmissionRepository reads webform submissions in a stable order.
type SubmissionRepository interface {
	Count(ctx context.Context, webformID string) (int, error)
	// SubmissionIDAt returns the sid at position index when ordered by sid.
	// ok is false when fewer than index+1 submissions exist.
	SubmissionIDAt(ctx context.Context, webformID string, index int) (sid int64, ok bool, err error)
	FieldRows(ctx context.Context, webformID string, sid int64) ([]domain.FieldRow, error)
}

// NodeTitleRepository resolves node titles in one language.
type NodeTitleRepository interface {
	TitlesByIDs(ctx context.Context, langcode string, nids []int64) (map[int64]string, error)
}

// AuditLogRepository stores who downloaded which export.
type AuditLogRepository interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
	List(ctx context.Context, limit int, offset int) ([]domain.AuditEntry, error)
}
