package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rpattn/formexport/internal/domain"
)

type submissionRepository struct {
	db DBTX
}

// NewSubmissionRepository wires a repository over the webform submission tables.
func NewSubmissionRepository(db DBTX) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Count(ctx context.Context, webformID string) (int, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM webform_submission WHERE webform_id = $1`,
		webformID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return int(count), nil
}

func (r *submissionRepository) SubmissionIDAt(ctx context.Context, webformID string, index int) (int64, bool, error) {
	if index < 0 {
		return 0, false, fmt.Errorf("invalid submission index %d", index)
	}
	var sid int64
	err := r.db.QueryRow(ctx,
		`SELECT sid
		   FROM webform_submission
		  WHERE webform_id = $1
		  ORDER BY sid
		  LIMIT 1 OFFSET $2`,
		webformID,
		index,
	).Scan(&sid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get submission at %d: %w", index, err)
	}
	return sid, true, nil
}

func (r *submissionRepository) FieldRows(ctx context.Context, webformID string, sid int64) ([]domain.FieldRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT wsd.sid, wsd.name, wsd.value, ws.langcode, ws.created
		   FROM webform_submission_data wsd
		   JOIN webform_submission ws ON ws.sid = wsd.sid
		  WHERE wsd.webform_id = $1
		    AND wsd.sid = $2
		  ORDER BY wsd.name, wsd.delta`,
		webformID,
		sid,
	)
	if err != nil {
		return nil, fmt.Errorf("query submission %d data: %w", sid, err)
	}
	defer rows.Close()

	var result []domain.FieldRow
	for rows.Next() {
		var (
			row   domain.FieldRow
			value pgtype.Text
		)
		if err := rows.Scan(&row.SubmissionID, &row.Name, &value, &row.Langcode, &row.Created); err != nil {
			return nil, fmt.Errorf("scan submission %d data: %w", sid, err)
		}
		if value.Valid {
			row.Value = value.String
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission %d data: %w", sid, err)
	}
	return result, nil
}
