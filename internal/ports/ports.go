package ports

import (
	"context"
	"time"

	"ProductCurator/internal/domain"
)

// SupplierClient searches one external catalog page by page.
type SupplierClient interface {
	Name() string
	Search(ctx context.Context, query domain.SearchQuery) (domain.SearchPage, error)
}

// CandidateSource pulls candidates from every configured supplier and category.
type CandidateSource interface {
	FetchCandidates(ctx context.Context) (domain.FetchBatch, error)
}

// ProductRepository persists curated products and answers dedupe lookups.
type ProductRepository interface {
	AlreadyProcessed(ctx context.Context, keys []string) (map[string]bool, error)
	Save(ctx context.Context, product domain.CuratedProduct) error
	Get(ctx context.Context, id string) (domain.CuratedProduct, error)
	UpdateStatus(ctx context.Context, id string, status domain.ProductStatus, review *domain.ReviewRecord) error
	ListByStatus(ctx context.Context, status domain.ProductStatus, limit int) ([]domain.CuratedProduct, error)
	CountByStatus(ctx context.Context) (map[domain.ProductStatus]int, error)
}

// RejectionLog keeps candidates dropped by the filter, the router or a reviewer.
type RejectionLog interface {
	Record(ctx context.Context, rejection domain.Rejection) error
	Recent(ctx context.Context, limit int) ([]domain.Rejection, error)
}

// ReviewQueue stores items waiting for an operator. Resolve removes an item atomically.
type ReviewQueue interface {
	Add(ctx context.Context, item domain.ReviewQueueItem) error
	List(ctx context.Context, limit int) ([]domain.ReviewQueueItem, error)
	Resolve(ctx context.Context, itemID string) (domain.ReviewQueueItem, error)
	Count(ctx context.Context) (int, error)
}

// ReportRepository persists curation reports, newest first on read.
type ReportRepository interface {
	SaveReport(ctx context.Context, report domain.CurationReport) error
	LatestReports(ctx context.Context, limit int) ([]domain.CurationReport, error)
}

// ThresholdStore persists routing thresholds edited at runtime.
type ThresholdStore interface {
	ListThresholds(ctx context.Context) ([]domain.QualityThreshold, error)
	SaveThreshold(ctx context.Context, threshold domain.QualityThreshold) error
}

// JobStateStore persists scheduler state across restarts.
type JobStateStore interface {
	LoadJobState(ctx context.Context, name string) (domain.JobState, bool, error)
	SaveJobState(ctx context.Context, state domain.JobState) error
}

// ImageAssessor filters supplier images down to the usable ones.
type ImageAssessor interface {
	UsableImages(ctx context.Context, candidate domain.Candidate) ([]string, error)
}

// DescriptionEnhancer rewrites product copy for the storefront.
type DescriptionEnhancer interface {
	Enhance(ctx context.Context, name, description string) (string, error)
}

// Notifier delivers operator-facing messages.
type Notifier interface {
	NotifyError(ctx context.Context, job, message string) error
	NotifyLowStock(ctx context.Context, items []domain.LowStockItem) error
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler fires named jobs at a fixed cadence.
type Scheduler interface {
	Schedule(name string, every time.Duration, job func(time.Time)) error
	Unschedule(name string)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
