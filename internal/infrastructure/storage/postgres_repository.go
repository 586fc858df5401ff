package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/ports"
)

var productColumns = []string{
	"id", "source_key", "external_id", "source", "name", "description",
	"cost_price", "price", "currency", "images", "category",
	"supplier", "metrics", "status", "rule_id", "reason", "review",
	"created_at", "updated_at",
}

// ProductRepository persists curated products into Postgres.
type ProductRepository struct {
	db *sql.DB
}

var _ ports.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository wires a sql.DB implementation.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func alreadyProcessedQuery(keys []string) sq.SelectBuilder {
	return psql.Select("source_key").
		From("curated_products").
		Where("source_key = ANY(?)", pq.StringArray(keys))
}

// AlreadyProcessed returns the subset of source keys that already have a product.
func (r *ProductRepository) AlreadyProcessed(ctx context.Context, keys []string) (map[string]bool, error) {
	if r.db == nil || len(keys) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := alreadyProcessedQuery(keys).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build processed query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}

	result := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, closeRows(rows, fmt.Errorf("scan source key: %w", err))
		}
		result[key] = true
	}
	if err := closeRows(rows, nil); err != nil {
		return nil, err
	}
	return result, nil
}

func saveProductQuery(p domain.CuratedProduct) (sq.InsertBuilder, error) {
	supplier, err := json.Marshal(p.Supplier)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("marshal supplier: %w", err)
	}
	metrics, err := json.Marshal(p.Metrics)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("marshal metrics: %w", err)
	}
	review, err := marshalReview(p.Review)
	if err != nil {
		return sq.InsertBuilder{}, err
	}

	return psql.Insert("curated_products").
		Columns(append(append([]string(nil), productColumns...), "overall_score")...).
		Values(
			p.ID, p.SourceKey, p.ExternalID, p.Source, p.Name, p.Description,
			p.CostPrice, p.Price, p.Currency, pq.StringArray(p.Images), p.Category,
			string(supplier), string(metrics), string(p.Status), p.RuleID, p.Reason, review,
			p.CreatedAt, p.UpdatedAt, p.Metrics.Overall,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE
              SET name = EXCLUDED.name,
                  description = EXCLUDED.description,
                  price = EXCLUDED.price,
                  images = EXCLUDED.images,
                  metrics = EXCLUDED.metrics,
                  overall_score = EXCLUDED.overall_score,
                  status = EXCLUDED.status,
                  rule_id = EXCLUDED.rule_id,
                  reason = EXCLUDED.reason,
                  review = EXCLUDED.review,
                  updated_at = EXCLUDED.updated_at`), nil
}

// Save upserts a product by ID. The unique source_key refuses a second product for the same listing.
func (r *ProductRepository) Save(ctx context.Context, p domain.CuratedProduct) error {
	if r.db == nil {
		return nil
	}

	builder, err := saveProductQuery(p)
	if err != nil {
		return err
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build product insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert product %s: %w", p.SourceKey, err)
	}
	return nil
}

// Get returns a product by ID.
func (r *ProductRepository) Get(ctx context.Context, id string) (domain.CuratedProduct, error) {
	query, args, err := psql.Select(productColumns...).
		From("curated_products").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.CuratedProduct{}, fmt.Errorf("build product query: %w", err)
	}

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CuratedProduct{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.CuratedProduct{}, err
	}
	return p, nil
}

func updateStatusQuery(id string, status domain.ProductStatus, review any, now time.Time) sq.UpdateBuilder {
	return psql.Update("curated_products").
		Set("status", string(status)).
		Set("review", review).
		Set("updated_at", now).
		Where(sq.Eq{"id": id})
}

// UpdateStatus changes a product's status and review record.
func (r *ProductRepository) UpdateStatus(ctx context.Context, id string, status domain.ProductStatus, review *domain.ReviewRecord) error {
	raw, err := marshalReview(review)
	if err != nil {
		return err
	}
	query, args, err := updateStatusQuery(id, status, raw, time.Now().UTC()).ToSql()
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update product %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func listByStatusQuery(status domain.ProductStatus, limit int) sq.SelectBuilder {
	q := psql.Select(productColumns...).
		From("curated_products").
		Where(sq.Eq{"status": string(status)}).
		OrderBy("overall_score DESC", "id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return q
}

// ListByStatus returns products with the status, highest score first.
func (r *ProductRepository) ListByStatus(ctx context.Context, status domain.ProductStatus, limit int) ([]domain.CuratedProduct, error) {
	query, args, err := listByStatusQuery(status, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	var out []domain.CuratedProduct
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, closeRows(rows, err)
		}
		out = append(out, p)
	}
	if err := closeRows(rows, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByStatus returns product counts per status.
func (r *ProductRepository) CountByStatus(ctx context.Context) (map[domain.ProductStatus]int, error) {
	query, args, err := psql.Select("status", "COUNT(*)").
		From("curated_products").
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	counts := make(map[domain.ProductStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, closeRows(rows, fmt.Errorf("scan count: %w", err))
		}
		counts[domain.ProductStatus(status)] = n
	}
	if err := closeRows(rows, nil); err != nil {
		return nil, err
	}
	return counts, nil
}

func scanProduct(row rowScanner) (domain.CuratedProduct, error) {
	var (
		p                 domain.CuratedProduct
		status            string
		images            pq.StringArray
		supplier, metrics []byte
		review            []byte
	)
	err := row.Scan(
		&p.ID, &p.SourceKey, &p.ExternalID, &p.Source, &p.Name, &p.Description,
		&p.CostPrice, &p.Price, &p.Currency, &images, &p.Category,
		&supplier, &metrics, &status, &p.RuleID, &p.Reason, &review,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CuratedProduct{}, err
		}
		return domain.CuratedProduct{}, fmt.Errorf("scan product: %w", err)
	}

	p.Status = domain.ProductStatus(status)
	p.Images = []string(images)
	if err := json.Unmarshal(supplier, &p.Supplier); err != nil {
		return domain.CuratedProduct{}, fmt.Errorf("decode supplier of %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(metrics, &p.Metrics); err != nil {
		return domain.CuratedProduct{}, fmt.Errorf("decode metrics of %s: %w", p.ID, err)
	}
	if len(review) > 0 {
		p.Review = &domain.ReviewRecord{}
		if err := json.Unmarshal(review, p.Review); err != nil {
			return domain.CuratedProduct{}, fmt.Errorf("decode review of %s: %w", p.ID, err)
		}
	}
	return p, nil
}

// marshalReview returns a JSON string, or an untyped nil so the column is NULL.
func marshalReview(review *domain.ReviewRecord) (any, error) {
	if review == nil {
		return nil, nil
	}
	raw, err := json.Marshal(review)
	if err != nil {
		return nil, fmt.Errorf("marshal review: %w", err)
	}
	return string(raw), nil
}
