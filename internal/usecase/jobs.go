package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/ports"
)

// Job names known to the service.
const (
	JobDailyCuration = "daily-product-curation"
	JobInventorySync = "inventory-sync"
	JobWeeklyDigest  = "weekly-curation-digest"
)

const (
	digestReports  = 7
	digestProducts = 5
)

// CurationService runs the engine and stores a report for every run.
type CurationService struct {
	engine       *Engine
	reports      ports.ReportRepository
	reviews      *ReviewService
	generator    ReportGenerator
	historyDepth int
	logger       *slog.Logger
}

// NewCurationService wires the engine with report persistence.
func NewCurationService(engine *Engine, reports ports.ReportRepository, reviews *ReviewService, historyDepth int, logger *slog.Logger) *CurationService {
	if historyDepth <= 0 {
		historyDepth = 1
	}
	return &CurationService{
		engine:       engine,
		reports:      reports,
		reviews:      reviews,
		generator:    NewReportGenerator(),
		historyDepth: historyDepth,
		logger:       logger,
	}
}

// Run executes one curation run and persists its report. A run that fetched
// nothing because of errors is returned together with an error.
func (s *CurationService) Run(ctx context.Context) (domain.CurationReport, error) {
	result := s.engine.RunOnce(ctx)

	var history HistoricalContext
	if s.reports != nil {
		previous, err := s.reports.LatestReports(ctx, s.historyDepth)
		if err != nil {
			s.warn("load report history failed", "error", err)
		} else if len(previous) > 0 {
			history.Previous = &previous[0]
		}
	}
	if s.reviews != nil {
		if n, err := s.reviews.Count(ctx); err == nil {
			history.PendingReview = n
		}
	}

	report := s.generator.Summarize(result, history)
	if s.reports != nil {
		if err := s.reports.SaveReport(context.WithoutCancel(ctx), report); err != nil {
			return report, fmt.Errorf("save report: %w", err)
		}
	}

	if result.Fetched == 0 && len(result.Errors) > 0 {
		return report, errors.New(result.Errors[0])
	}
	return report, nil
}

// Job adapts Run to the scheduler.
func (s *CurationService) Job() JobFunc {
	return func(ctx context.Context) (string, error) {
		report, err := s.Run(ctx)
		summary := fmt.Sprintf("fetched %d, approved %d, review %d, rejected %d, filtered %d, skipped %d, failed %d",
			report.Fetched, report.AutoApproved, report.PendingReview, report.Rejected,
			report.Filtered, report.Skipped, report.Failed)
		return summary, err
	}
}

func (s *CurationService) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// InventorySync compares live products against current supplier stock.
type InventorySync struct {
	source    ports.CandidateSource
	products  ports.ProductRepository
	notifier  ports.Notifier
	threshold int
	logger    *slog.Logger
}

// NewInventorySync builds the stock check. Stock below threshold is reported as low.
func NewInventorySync(source ports.CandidateSource, products ports.ProductRepository, notifier ports.Notifier, threshold int, logger *slog.Logger) *InventorySync {
	return &InventorySync{source: source, products: products, notifier: notifier, threshold: threshold, logger: logger}
}

// Run checks every live product and notifies about short or missing stock.
func (s *InventorySync) Run(ctx context.Context) (domain.InventoryReport, error) {
	var live []domain.CuratedProduct
	for _, status := range []domain.ProductStatus{domain.StatusAutoApproved, domain.StatusManualOverride} {
		products, err := s.products.ListByStatus(ctx, status, 0)
		if err != nil {
			return domain.InventoryReport{}, fmt.Errorf("list %s products: %w", status, err)
		}
		live = append(live, products...)
	}
	if len(live) == 0 {
		return domain.InventoryReport{}, nil
	}

	batch, err := s.source.FetchCandidates(ctx)
	if err != nil {
		return domain.InventoryReport{}, fmt.Errorf("fetch supplier stock: %w", err)
	}
	if batch.TotalFailure() {
		return domain.InventoryReport{}, fmt.Errorf("fetch supplier stock: %w", batch.Failures[0])
	}

	degraded := make(map[string]bool)
	for _, f := range batch.Failures {
		degraded[f.Source] = true
	}
	current := make(map[string]domain.Candidate, len(batch.Candidates))
	for _, c := range batch.Candidates {
		current[c.Key()] = c
	}

	report := domain.InventoryReport{Checked: len(live)}
	for _, p := range live {
		c, ok := current[p.SourceKey]
		switch {
		case !ok && degraded[p.Source]:
			// Supplier only partially answered; absence proves nothing.
		case !ok:
			report.LowStock = append(report.LowStock, lowStock(p, 0, "no longer listed"))
		case !c.InStock || c.StockQuantity <= 0:
			report.LowStock = append(report.LowStock, lowStock(p, 0, "out of stock"))
		case c.StockQuantity < s.threshold:
			report.LowStock = append(report.LowStock, lowStock(p, c.StockQuantity, "low stock"))
		}
	}

	if len(report.LowStock) > 0 && s.notifier != nil {
		if err := s.notifier.NotifyLowStock(ctx, report.LowStock); err != nil {
			return report, fmt.Errorf("notify low stock: %w", err)
		}
	}
	if s.logger != nil {
		s.logger.Info("inventory sync finished", "checked", report.Checked, "flagged", len(report.LowStock))
	}
	return report, nil
}

// Job adapts Run to the scheduler.
func (s *InventorySync) Job() JobFunc {
	return func(ctx context.Context) (string, error) {
		report, err := s.Run(ctx)
		return fmt.Sprintf("checked %d, flagged %d", report.Checked, len(report.LowStock)), err
	}
}

func lowStock(p domain.CuratedProduct, stock int, reason string) domain.LowStockItem {
	return domain.LowStockItem{ProductID: p.ID, SourceKey: p.SourceKey, Name: p.Name, Stock: stock, Reason: reason}
}

// WeeklyDigest publishes a summary of recent runs and the best new products.
type WeeklyDigest struct {
	reports  ports.ReportRepository
	products ports.ProductRepository
	notifier ports.Notifier
}

// NewWeeklyDigest builds the digest job.
func NewWeeklyDigest(reports ports.ReportRepository, products ports.ProductRepository, notifier ports.Notifier) *WeeklyDigest {
	return &WeeklyDigest{reports: reports, products: products, notifier: notifier}
}

// Run composes the digest and hands it to the notifier.
func (d *WeeklyDigest) Run(ctx context.Context) (string, error) {
	reports, err := d.reports.LatestReports(ctx, digestReports)
	if err != nil {
		return "", fmt.Errorf("load reports: %w", err)
	}
	top, err := d.products.ListByStatus(ctx, domain.StatusAutoApproved, digestProducts)
	if err != nil {
		return "", fmt.Errorf("load approved products: %w", err)
	}

	digest := FormatDigest(reports, top)
	if d.notifier != nil {
		if err := d.notifier.PublishDigest(ctx, digest); err != nil {
			return digest, fmt.Errorf("publish digest: %w", err)
		}
	}
	return digest, nil
}

// Job adapts Run to the scheduler.
func (d *WeeklyDigest) Job() JobFunc {
	return func(ctx context.Context) (string, error) {
		if _, err := d.Run(ctx); err != nil {
			return "", err
		}
		return "digest published", nil
	}
}

// FormatDigest renders reports (newest first) and top products as plain text.
func FormatDigest(reports []domain.CurationReport, top []domain.CuratedProduct) string {
	var b strings.Builder
	b.WriteString("Weekly curation digest\n")
	if len(reports) == 0 {
		b.WriteString("No curation runs this week.\n")
	}

	var fetched, approved, review, rejected int
	var scoreSum float64
	for _, r := range reports {
		fetched += r.Fetched
		approved += r.AutoApproved
		review += r.PendingReview
		rejected += r.Rejected
		scoreSum += r.AverageScore
	}
	if len(reports) > 0 {
		fmt.Fprintf(&b, "Runs: %d\nFetched: %d\nAuto-approved: %d\nSent to review: %d\nRejected: %d\nAverage score: %.1f\n",
			len(reports), fetched, approved, review, rejected, scoreSum/float64(len(reports)))
	}

	if len(top) > 0 {
		b.WriteString("Top products:\n")
		for i, p := range top {
			fmt.Fprintf(&b, "%d. %s (%.0f) %.2f %s\n", i+1, p.Name, p.Metrics.Overall, p.Price, p.Currency)
		}
	}
	if len(reports) > 0 {
		latest := reports[0]
		if len(latest.Recommendations) > 0 {
			b.WriteString("Latest recommendations:\n")
			for _, rec := range latest.Recommendations {
				b.WriteString("- " + rec + "\n")
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
