package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/ports"
)

// ReportRepository stores curation reports as JSON documents.
type ReportRepository struct {
	db *sql.DB
}

var _ ports.ReportRepository = (*ReportRepository)(nil)

// NewReportRepository wires a sql.DB implementation.
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func saveReportQuery(r domain.CurationReport) (sq.InsertBuilder, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("marshal report: %w", err)
	}
	return psql.Insert("curation_reports").
		Columns("id", "run_id", "generated_at", "payload").
		Values(r.ID, r.RunID, r.GeneratedAt, string(payload)).
		Suffix("ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, generated_at = EXCLUDED.generated_at"), nil
}

// SaveReport upserts a report by ID.
func (s *ReportRepository) SaveReport(ctx context.Context, r domain.CurationReport) error {
	builder, err := saveReportQuery(r)
	if err != nil {
		return err
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build report insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save report %s: %w", r.ID, err)
	}
	return nil
}

// LatestReports returns up to limit reports, newest first.
func (s *ReportRepository) LatestReports(ctx context.Context, limit int) ([]domain.CurationReport, error) {
	q := psql.Select("payload").From("curation_reports").OrderBy("generated_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build report query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}

	var out []domain.CurationReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, closeRows(rows, fmt.Errorf("scan report: %w", err))
		}
		var r domain.CurationReport
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, closeRows(rows, fmt.Errorf("decode report: %w", err))
		}
		out = append(out, r)
	}
	if err := closeRows(rows, nil); err != nil {
		return nil, err
	}
	return out, nil
}
