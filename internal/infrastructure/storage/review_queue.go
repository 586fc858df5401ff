package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/ports"
)

const reviewColumns = "id, product, priority, reason, estimated_value, created_at"

// ReviewQueue stores pending review items. Resolve deletes with RETURNING so a
// concurrent second resolve sees no row.
type ReviewQueue struct {
	db *sql.DB
}

var _ ports.ReviewQueue = (*ReviewQueue)(nil)

// NewReviewQueue wires a sql.DB implementation.
func NewReviewQueue(db *sql.DB) *ReviewQueue {
	return &ReviewQueue{db: db}
}

func addReviewQuery(item domain.ReviewQueueItem) (sq.InsertBuilder, error) {
	product, err := json.Marshal(item.Product)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("marshal review product: %w", err)
	}
	return psql.Insert("review_queue").
		Columns("id", "product_id", "product", "priority", "priority_rank", "reason", "estimated_value", "created_at").
		Values(item.ID, item.Product.ID, string(product), string(item.Priority), item.Priority.Rank(), item.Reason, item.EstimatedValue, item.CreatedAt), nil
}

// Add inserts an item; IDs must be unique.
func (q *ReviewQueue) Add(ctx context.Context, item domain.ReviewQueueItem) error {
	builder, err := addReviewQuery(item)
	if err != nil {
		return err
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build review insert: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert review item %s: %w", item.ID, err)
	}
	return nil
}

func listReviewQuery(limit int) sq.SelectBuilder {
	b := psql.Select(reviewColumns).
		From("review_queue").
		OrderBy("priority_rank", "created_at", "id")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return b
}

// List returns pending items by priority, then age.
func (q *ReviewQueue) List(ctx context.Context, limit int) ([]domain.ReviewQueueItem, error) {
	query, args, err := listReviewQuery(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build review query: %w", err)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query review queue: %w", err)
	}

	var out []domain.ReviewQueueItem
	for rows.Next() {
		item, err := scanReviewItem(rows)
		if err != nil {
			return nil, closeRows(rows, err)
		}
		out = append(out, item)
	}
	if err := closeRows(rows, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func resolveReviewQuery(itemID string) sq.DeleteBuilder {
	return psql.Delete("review_queue").
		Where(sq.Eq{"id": itemID}).
		Suffix("RETURNING " + reviewColumns)
}

// Resolve atomically removes and returns a pending item.
func (q *ReviewQueue) Resolve(ctx context.Context, itemID string) (domain.ReviewQueueItem, error) {
	query, args, err := resolveReviewQuery(itemID).ToSql()
	if err != nil {
		return domain.ReviewQueueItem{}, fmt.Errorf("build review delete: %w", err)
	}

	item, err := scanReviewItem(q.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ReviewQueueItem{}, domain.ErrNotPending
	}
	if err != nil {
		return domain.ReviewQueueItem{}, err
	}
	return item, nil
}

// Count returns the number of pending items.
func (q *ReviewQueue) Count(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM review_queue").Scan(&n); err != nil {
		return 0, fmt.Errorf("count review queue: %w", err)
	}
	return n, nil
}

func scanReviewItem(row rowScanner) (domain.ReviewQueueItem, error) {
	var (
		item     domain.ReviewQueueItem
		product  []byte
		priority string
	)
	if err := row.Scan(&item.ID, &product, &priority, &item.Reason, &item.EstimatedValue, &item.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ReviewQueueItem{}, err
		}
		return domain.ReviewQueueItem{}, fmt.Errorf("scan review item: %w", err)
	}
	item.Priority = domain.Priority(priority)
	if err := json.Unmarshal(product, &item.Product); err != nil {
		return domain.ReviewQueueItem{}, fmt.Errorf("decode review product of %s: %w", item.ID, err)
	}
	return item, nil
}
