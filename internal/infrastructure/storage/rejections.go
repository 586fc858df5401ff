package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/ports"
)

// RejectionLog keeps the latest rejection per source key.
type RejectionLog struct {
	db *sql.DB
}

var _ ports.RejectionLog = (*RejectionLog)(nil)

// NewRejectionLog wires a sql.DB implementation.
func NewRejectionLog(db *sql.DB) *RejectionLog {
	return &RejectionLog{db: db}
}

func recordRejectionQuery(r domain.Rejection) sq.InsertBuilder {
	return psql.Insert("rejection_log").
		Columns("source_key", "source", "external_id", "title", "stage", "reason", "score", "rejected_at").
		Values(r.SourceKey, r.Source, r.ExternalID, r.Title, string(r.Stage), r.Reason, r.Score, r.RejectedAt).
		Suffix(`ON CONFLICT (source_key) DO UPDATE
              SET title = EXCLUDED.title,
                  stage = EXCLUDED.stage,
                  reason = EXCLUDED.reason,
                  score = EXCLUDED.score,
                  rejected_at = EXCLUDED.rejected_at`)
}

// Record upserts a rejection by source key.
func (l *RejectionLog) Record(ctx context.Context, r domain.Rejection) error {
	query, args, err := recordRejectionQuery(r).ToSql()
	if err != nil {
		return fmt.Errorf("build rejection insert: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record rejection %s: %w", r.SourceKey, err)
	}
	return nil
}

// Recent returns the newest rejections first.
func (l *RejectionLog) Recent(ctx context.Context, limit int) ([]domain.Rejection, error) {
	q := psql.Select("source_key", "source", "external_id", "title", "stage", "reason", "score", "rejected_at").
		From("rejection_log").
		OrderBy("rejected_at DESC", "source_key")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build rejection query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rejections: %w", err)
	}

	var out []domain.Rejection
	for rows.Next() {
		var r domain.Rejection
		var stage string
		if err := rows.Scan(&r.SourceKey, &r.Source, &r.ExternalID, &r.Title, &stage, &r.Reason, &r.Score, &r.RejectedAt); err != nil {
			return nil, closeRows(rows, fmt.Errorf("scan rejection: %w", err))
		}
		r.Stage = domain.RejectionStage(stage)
		out = append(out, r)
	}
	if err := closeRows(rows, nil); err != nil {
		return nil, err
	}
	return out, nil
}
