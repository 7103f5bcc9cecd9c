package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/formexport/internal/domain"
)

type auditLogRepository struct {
	db DBTX
}

// NewAuditLogRepository wires a repository backed by the audit table.
func NewAuditLogRepository(db DBTX) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Record(ctx context.Context, entry domain.AuditEntry) error {
	if r.db == nil {
		return fmt.Errorf("audit log repository not initialized")
	}
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO csv_data_download_audit (account_id, account_name, filename, message)
		 VALUES ($1, $2, $3, $4)`,
		entry.AccountID,
		entry.AccountName,
		entry.Filename,
		entry.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

func (r *auditLogRepository) List(ctx context.Context, limit int, offset int) ([]domain.AuditEntry, error) {
	if r.db == nil {
		return nil, fmt.Errorf("audit log repository not initialized")
	}
	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT id, account_id, account_name, filename, message, created_at
		   FROM csv_data_download_audit
		  ORDER BY created_at DESC, id DESC
		  LIMIT $1 OFFSET $2`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.AccountName, &entry.Filename, &entry.Message, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}
