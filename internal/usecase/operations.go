package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/policy"
	"ProductCurator/internal/ports"
)

const defaultListLimit = 50

// OperationsDeps wires the admin facade.
type OperationsDeps struct {
	Runner     *Runner
	Router     *policy.Router
	Thresholds ports.ThresholdStore
	Reviews    *ReviewService
	Products   ports.ProductRepository
	Rejections ports.RejectionLog
	Reports    ports.ReportRepository
	Logger     *slog.Logger
	Clock      func() time.Time
}

// Operations is the single entry point used by the admin API.
type Operations struct {
	runner     *Runner
	router     *policy.Router
	thresholds ports.ThresholdStore
	reviews    *ReviewService
	products   ports.ProductRepository
	rejections ports.RejectionLog
	reports    ports.ReportRepository
	logger     *slog.Logger
	now        func() time.Time
}

// NewOperations builds the admin facade.
func NewOperations(deps OperationsDeps) *Operations {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Operations{
		runner:     deps.Runner,
		router:     deps.Router,
		thresholds: deps.Thresholds,
		reviews:    deps.Reviews,
		products:   deps.Products,
		rejections: deps.Rejections,
		reports:    deps.Reports,
		logger:     deps.Logger,
		now:        clock,
	}
}

// SystemStatus snapshots jobs, thresholds, catalog counts, backlog and the latest report.
func (o *Operations) SystemStatus(ctx context.Context) (domain.SystemStatus, error) {
	status := domain.SystemStatus{
		GeneratedAt: o.now().UTC(),
		Jobs:        o.runner.Snapshot(),
		Thresholds:  o.router.Thresholds(),
	}

	counts, err := o.products.CountByStatus(ctx)
	if err != nil {
		return domain.SystemStatus{}, fmt.Errorf("count products: %w", err)
	}
	status.Catalog = counts

	pending, err := o.reviews.Count(ctx)
	if err != nil {
		return domain.SystemStatus{}, fmt.Errorf("count review queue: %w", err)
	}
	status.PendingReview = pending

	reports, err := o.reports.LatestReports(ctx, 1)
	if err != nil {
		return domain.SystemStatus{}, fmt.Errorf("load latest report: %w", err)
	}
	if len(reports) > 0 {
		status.LatestReport = &reports[0]
	}
	return status, nil
}

// TriggerJob runs a job synchronously.
func (o *Operations) TriggerJob(ctx context.Context, name string) (domain.JobState, error) {
	return o.runner.Trigger(ctx, name)
}

// SetJobEnabled toggles a job's schedule.
func (o *Operations) SetJobEnabled(ctx context.Context, name string, enabled bool) (domain.JobState, error) {
	return o.runner.SetEnabled(ctx, name, enabled)
}

// Thresholds lists the routing rules in effect.
func (o *Operations) Thresholds() []domain.QualityThreshold {
	return o.router.Thresholds()
}

// UpdateThreshold applies a rule to the live router and persists it.
func (o *Operations) UpdateThreshold(ctx context.Context, th domain.QualityThreshold) (domain.QualityThreshold, error) {
	updated, err := o.router.Update(th)
	if err != nil {
		return domain.QualityThreshold{}, err
	}
	if o.thresholds != nil {
		if err := o.thresholds.SaveThreshold(ctx, updated); err != nil {
			return updated, fmt.Errorf("persist threshold %s: %w", updated.ID, err)
		}
	}
	if o.logger != nil {
		o.logger.Info("threshold updated", "id", updated.ID, "type", updated.Type, "version", updated.Version)
	}
	return updated, nil
}

// ReviewQueue lists pending items, highest priority first.
func (o *Operations) ReviewQueue(ctx context.Context, limit int) ([]domain.ReviewQueueItem, error) {
	return o.reviews.List(ctx, normalizeLimit(limit))
}

// ApproveReview publishes a queued product.
func (o *Operations) ApproveReview(ctx context.Context, itemID, reviewerID, notes string) (domain.CuratedProduct, error) {
	return o.reviews.Approve(ctx, itemID, reviewerID, notes)
}

// RejectReview drops a queued product.
func (o *Operations) RejectReview(ctx context.Context, itemID, reviewerID, reason string) (domain.CuratedProduct, error) {
	return o.reviews.Reject(ctx, itemID, reviewerID, reason)
}

// LatestReport returns the newest curation report or ErrNotFound.
func (o *Operations) LatestReport(ctx context.Context) (domain.CurationReport, error) {
	reports, err := o.reports.LatestReports(ctx, 1)
	if err != nil {
		return domain.CurationReport{}, fmt.Errorf("load latest report: %w", err)
	}
	if len(reports) == 0 {
		return domain.CurationReport{}, fmt.Errorf("curation report: %w", domain.ErrNotFound)
	}
	return reports[0], nil
}

// Products lists products in one status, best scores first.
func (o *Operations) Products(ctx context.Context, status domain.ProductStatus, limit int) ([]domain.CuratedProduct, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	return o.products.ListByStatus(ctx, status, normalizeLimit(limit))
}

// Rejections lists the newest rejection log entries.
func (o *Operations) Rejections(ctx context.Context, limit int) ([]domain.Rejection, error) {
	if o.rejections == nil {
		return nil, nil
	}
	return o.rejections.Recent(ctx, normalizeLimit(limit))
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

// LoadThresholds returns persisted thresholds, seeding the store with defaults on first boot.
func LoadThresholds(ctx context.Context, store ports.ThresholdStore, defaults []domain.QualityThreshold) ([]domain.QualityThreshold, error) {
	if store == nil {
		return defaults, nil
	}
	stored, err := store.ListThresholds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list thresholds: %w", err)
	}
	if len(stored) > 0 {
		return stored, nil
	}
	for _, th := range defaults {
		if err := policy.Validate(th); err != nil {
			return nil, err
		}
		if th.Version == 0 {
			th.Version = 1
		}
		if err := store.SaveThreshold(ctx, th); err != nil {
			return nil, fmt.Errorf("seed threshold %s: %w", th.ID, err)
		}
	}
	return defaults, nil
}
