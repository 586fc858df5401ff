package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/ports"
)

// ThresholdStore persists routing thresholds in insertion order.
type ThresholdStore struct {
	db *sql.DB
}

var _ ports.ThresholdStore = (*ThresholdStore)(nil)

// NewThresholdStore wires a sql.DB implementation.
func NewThresholdStore(db *sql.DB) *ThresholdStore {
	return &ThresholdStore{db: db}
}

// ListThresholds returns thresholds in the order they were first saved.
func (s *ThresholdStore) ListThresholds(ctx context.Context) ([]domain.QualityThreshold, error) {
	query, args, err := psql.Select("id", "name", "type", "version", "active", "conditions", "updated_at").
		From("quality_thresholds").
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build threshold query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query thresholds: %w", err)
	}

	var out []domain.QualityThreshold
	for rows.Next() {
		var (
			th         domain.QualityThreshold
			kind       string
			conditions []byte
		)
		if err := rows.Scan(&th.ID, &th.Name, &kind, &th.Version, &th.Active, &conditions, &th.UpdatedAt); err != nil {
			return nil, closeRows(rows, fmt.Errorf("scan threshold: %w", err))
		}
		th.Type = domain.ThresholdType(kind)
		if err := json.Unmarshal(conditions, &th.Conditions); err != nil {
			return nil, closeRows(rows, fmt.Errorf("decode conditions of %s: %w", th.ID, err))
		}
		out = append(out, th)
	}
	if err := closeRows(rows, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func saveThresholdQuery(th domain.QualityThreshold) (sq.InsertBuilder, error) {
	conditions, err := json.Marshal(th.Conditions)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("marshal conditions: %w", err)
	}
	updatedAt := th.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	return psql.Insert("quality_thresholds").
		Columns("id", "name", "type", "version", "active", "conditions", "updated_at").
		Values(th.ID, th.Name, string(th.Type), th.Version, th.Active, string(conditions), updatedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE
              SET name = EXCLUDED.name,
                  type = EXCLUDED.type,
                  version = EXCLUDED.version,
                  active = EXCLUDED.active,
                  conditions = EXCLUDED.conditions,
                  updated_at = EXCLUDED.updated_at`), nil
}

// SaveThreshold upserts by ID, keeping the original position.
func (s *ThresholdStore) SaveThreshold(ctx context.Context, th domain.QualityThreshold) error {
	builder, err := saveThresholdQuery(th)
	if err != nil {
		return err
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build threshold insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save threshold %s: %w", th.ID, err)
	}
	return nil
}
