package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/ports"
	"ProductCurator/internal/supplier"
)

const (
	defaultPageSize = 50
	defaultMaxPages = 10
)

// Source implements CandidateSource over every configured supplier target.
type Source struct {
	registry    *supplier.Registry
	targets     []supplier.Target
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

var _ ports.CandidateSource = (*Source)(nil)

// NewSource wires the supplier registry with config-defined targets.
// timeout bounds each supplier/category fetch; concurrency bounds parallel fetches.
func NewSource(reg *supplier.Registry, targets []supplier.Target, timeout time.Duration, concurrency int, log *slog.Logger) *Source {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Source{
		registry:    reg,
		targets:     targets,
		timeout:     timeout,
		concurrency: concurrency,
		logger:      log,
		now:         time.Now,
	}
}

type fetchJob struct {
	target   supplier.Target
	client   ports.SupplierClient
	category string
}

// FetchCandidates runs one fetch per supplier/category pair. Failed pairs are
// reported in the batch rather than aborting the others.
func (s *Source) FetchCandidates(ctx context.Context) (domain.FetchBatch, error) {
	if s.registry == nil {
		return domain.FetchBatch{}, fmt.Errorf("supplier registry is not configured")
	}

	var (
		batch domain.FetchBatch
		jobs  []fetchJob
	)
	for _, target := range s.targets {
		client, err := s.registry.Resolve(target.Supplier)
		for _, category := range target.Categories {
			batch.Attempts++
			if err != nil {
				batch.Failures = append(batch.Failures, &domain.FetchError{Source: target.Supplier, Category: category, Err: err})
				continue
			}
			jobs = append(jobs, fetchJob{target: target, client: client, category: category})
		}
	}

	s.debug("fetch candidates", "targets", len(s.targets), "jobs", len(jobs))

	results := make([][]domain.Candidate, len(jobs))
	failures := make([]*domain.FetchError, len(jobs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			items, err := s.fetchCategory(ctx, job)
			if err != nil {
				failures[i] = &domain.FetchError{Source: job.target.Supplier, Category: job.category, Err: err}
				s.warn("category fetch failed", "supplier", job.target.Supplier, "category", job.category, "error", err)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	for i := range jobs {
		if failures[i] != nil {
			batch.Failures = append(batch.Failures, failures[i])
			continue
		}
		batch.Candidates = append(batch.Candidates, results[i]...)
	}

	s.debug("fetch done", "candidates", len(batch.Candidates), "failures", len(batch.Failures))
	return batch, nil
}

func (s *Source) fetchCategory(ctx context.Context, job fetchJob) ([]domain.Candidate, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	pageSize := job.target.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	maxPages := job.target.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	var collected []domain.Candidate
	fetchedAt := s.now().UTC()
	for page := 1; page <= maxPages; page++ {
		result, err := job.client.Search(ctx, domain.SearchQuery{
			Category: job.category,
			MinPrice: job.target.MinPrice,
			MaxPrice: job.target.MaxPrice,
			Country:  job.target.Country,
			Page:     page,
			PageSize: pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		for _, item := range result.Items {
			if item.Source == "" {
				item.Source = job.target.Supplier
			}
			if item.Category == "" {
				item.Category = job.category
			}
			item.FetchedAt = fetchedAt
			collected = append(collected, item)
		}

		if len(result.Items) < pageSize || (result.Total > 0 && len(collected) >= result.Total) {
			break
		}
	}

	return collected, nil
}

func (s *Source) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Source) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
