package repository

import (
	"context"
	"fmt"
)

type nodeTitleRepository struct {
	db DBTX
}

// NewNodeTitleRepository wires a repository over node_field_data.
func NewNodeTitleRepository(db DBTX) NodeTitleRepository {
	return &nodeTitleRepository{db: db}
}

func (r *nodeTitleRepository) TitlesByIDs(ctx context.Context, langcode string, nids []int64) (map[int64]string, error) {
	titles := make(map[int64]string, len(nids))
	if len(nids) == 0 {
		return titles, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT nid, title
		   FROM node_field_data
		  WHERE langcode = $1
		    AND nid = ANY($2)`,
		langcode,
		nids,
	)
	if err != nil {
		return nil, fmt.Errorf("query node titles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			nid   int64
			title string
		)
		if err := rows.Scan(&nid, &title); err != nil {
			return nil, fmt.Errorf("scan node title: %w", err)
		}
		titles[nid] = title
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate node titles: %w", err)
	}
	return titles, nil
}
