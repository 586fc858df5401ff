// Package memory provides process-local stores used when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/ports"
)

// ProductStore keeps curated products keyed by ID with a SourceKey index.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]domain.CuratedProduct
	bySource map[string]string
}

var _ ports.ProductRepository = (*ProductStore)(nil)

// NewProductStore builds an empty store.
func NewProductStore() *ProductStore {
	return &ProductStore{
		products: map[string]domain.CuratedProduct{},
		bySource: map[string]string{},
	}
}

// AlreadyProcessed returns the subset of keys with a stored product.
func (s *ProductStore) AlreadyProcessed(_ context.Context, keys []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]bool)
	for _, key := range keys {
		if _, ok := s.bySource[key]; ok {
			result[key] = true
		}
	}
	return result, nil
}

// Save inserts a product; a second product for the same source key is refused.
func (s *ProductStore) Save(_ context.Context, p domain.CuratedProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.bySource[p.SourceKey]; ok && existing != p.ID {
		return fmt.Errorf("product for %s already exists", p.SourceKey)
	}
	s.products[p.ID] = p
	s.bySource[p.SourceKey] = p.ID
	return nil
}

// Get returns a product by ID.
func (s *ProductStore) Get(_ context.Context, id string) (domain.CuratedProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.CuratedProduct{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// UpdateStatus changes a product's status and review record.
func (s *ProductStore) UpdateStatus(_ context.Context, id string, status domain.ProductStatus, review *domain.ReviewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	p.Status = status
	p.Review = review
	p.UpdatedAt = time.Now().UTC()
	s.products[id] = p
	return nil
}

// ListByStatus returns products with the status, highest score first.
func (s *ProductStore) ListByStatus(_ context.Context, status domain.ProductStatus, limit int) ([]domain.CuratedProduct, error) {
	s.mu.RLock()
	var out []domain.CuratedProduct
	for _, p := range s.products {
		if p.Status == status {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Metrics.Overall != out[j].Metrics.Overall {
			return out[i].Metrics.Overall > out[j].Metrics.Overall
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByStatus returns product counts per status.
func (s *ProductStore) CountByStatus(_ context.Context) (map[domain.ProductStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.ProductStatus]int)
	for _, p := range s.products {
		counts[p.Status]++
	}
	return counts, nil
}

// RejectionLog keeps the latest rejection per source key.
type RejectionLog struct {
	mu      sync.Mutex
	entries map[string]domain.Rejection
}

var _ ports.RejectionLog = (*RejectionLog)(nil)

// NewRejectionLog builds an empty log.
func NewRejectionLog() *RejectionLog {
	return &RejectionLog{entries: map[string]domain.Rejection{}}
}

// Record upserts a rejection by source key.
func (l *RejectionLog) Record(_ context.Context, r domain.Rejection) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[r.SourceKey] = r
	return nil
}

// Recent returns the newest rejections first.
func (l *RejectionLog) Recent(_ context.Context, limit int) ([]domain.Rejection, error) {
	l.mu.Lock()
	out := make([]domain.Rejection, 0, len(l.entries))
	for _, r := range l.entries {
		out = append(out, r)
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].RejectedAt.Equal(out[j].RejectedAt) {
			return out[i].RejectedAt.After(out[j].RejectedAt)
		}
		return out[i].SourceKey < out[j].SourceKey
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ReviewQueue is an in-memory pending queue keyed by item ID.
type ReviewQueue struct {
	mu    sync.Mutex
	items map[string]domain.ReviewQueueItem
}

var _ ports.ReviewQueue = (*ReviewQueue)(nil)

// NewReviewQueue builds an empty queue.
func NewReviewQueue() *ReviewQueue {
	return &ReviewQueue{items: map[string]domain.ReviewQueueItem{}}
}

// Add appends an item; IDs must be unique.
func (q *ReviewQueue) Add(_ context.Context, item domain.ReviewQueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.items[item.ID]; ok {
		return fmt.Errorf("review item %s already queued", item.ID)
	}
	q.items[item.ID] = item
	return nil
}

// List returns pending items by priority, then age.
func (q *ReviewQueue) List(_ context.Context, limit int) ([]domain.ReviewQueueItem, error) {
	q.mu.Lock()
	out := make([]domain.ReviewQueueItem, 0, len(q.items))
	for _, item := range q.items {
		out = append(out, item)
	}
	q.mu.Unlock()

	SortQueue(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Resolve removes and returns a pending item.
func (q *ReviewQueue) Resolve(_ context.Context, itemID string) (domain.ReviewQueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[itemID]
	if !ok {
		return domain.ReviewQueueItem{}, domain.ErrNotPending
	}
	delete(q.items, itemID)
	return item, nil
}

// Count returns the number of pending items.
func (q *ReviewQueue) Count(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items), nil
}

// SortQueue orders items high priority first, oldest first within a priority.
func SortQueue(items []domain.ReviewQueueItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority.Rank() != items[j].Priority.Rank() {
			return items[i].Priority.Rank() < items[j].Priority.Rank()
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

// ReportStore keeps reports in insertion order.
type ReportStore struct {
	mu      sync.RWMutex
	reports []domain.CurationReport
}

var _ ports.ReportRepository = (*ReportStore)(nil)

// NewReportStore builds an empty store.
func NewReportStore() *ReportStore {
	return &ReportStore{}
}

// SaveReport appends a report.
func (s *ReportStore) SaveReport(_ context.Context, r domain.CurationReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return nil
}

// LatestReports returns up to limit reports, newest first.
func (s *ReportStore) LatestReports(_ context.Context, limit int) ([]domain.CurationReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CurationReport, 0, len(s.reports))
	for i := len(s.reports) - 1; i >= 0; i-- {
		out = append(out, s.reports[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ThresholdStore keeps thresholds in insertion order.
type ThresholdStore struct {
	mu         sync.RWMutex
	thresholds []domain.QualityThreshold
}

var _ ports.ThresholdStore = (*ThresholdStore)(nil)

// NewThresholdStore builds an empty store.
func NewThresholdStore() *ThresholdStore {
	return &ThresholdStore{}
}

// ListThresholds returns every stored threshold.
func (s *ThresholdStore) ListThresholds(_ context.Context) ([]domain.QualityThreshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.QualityThreshold(nil), s.thresholds...), nil
}

// SaveThreshold upserts by ID, keeping the original position.
func (s *ThresholdStore) SaveThreshold(_ context.Context, th domain.QualityThreshold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.thresholds {
		if s.thresholds[i].ID == th.ID {
			s.thresholds[i] = th
			return nil
		}
	}
	s.thresholds = append(s.thresholds, th)
	return nil
}

// JobStateStore keeps scheduler state for the process lifetime.
type JobStateStore struct {
	mu     sync.RWMutex
	states map[string]domain.JobState
}

var _ ports.JobStateStore = (*JobStateStore)(nil)

// NewJobStateStore builds an empty store.
func NewJobStateStore() *JobStateStore {
	return &JobStateStore{states: map[string]domain.JobState{}}
}

// LoadJobState returns the saved state for a job, if any.
func (s *JobStateStore) LoadJobState(_ context.Context, name string) (domain.JobState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[name]
	return st, ok, nil
}

// SaveJobState stores the latest state for a job.
func (s *JobStateStore) SaveJobState(_ context.Context, st domain.JobState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[st.Name] = st
	return nil
}
