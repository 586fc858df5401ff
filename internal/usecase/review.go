package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/metrics"
	"ProductCurator/internal/ports"
)

// ReviewService manages products waiting for a manual decision.
type ReviewService struct {
	queue      ports.ReviewQueue
	products   ports.ProductRepository
	rejections ports.RejectionLog
	logger     *slog.Logger
	now        func() time.Time
}

// NewReviewService wires the queue with the product and rejection stores.
func NewReviewService(queue ports.ReviewQueue, products ports.ProductRepository, rejections ports.RejectionLog, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		queue:      queue,
		products:   products,
		rejections: rejections,
		logger:     logger,
		now:        time.Now,
	}
}

// Add queues a product for review.
func (s *ReviewService) Add(ctx context.Context, product domain.CuratedProduct, reason string, priority domain.Priority) (domain.ReviewQueueItem, error) {
	item := domain.ReviewQueueItem{
		ID:             uuid.NewString(),
		Product:        product,
		Priority:       priority,
		Reason:         reason,
		EstimatedValue: estimatedValue(product),
		CreatedAt:      s.now().UTC(),
	}
	if err := s.queue.Add(ctx, item); err != nil {
		return domain.ReviewQueueItem{}, fmt.Errorf("queue review item: %w", err)
	}
	s.publishDepth(ctx)
	return item, nil
}

// Withdraw drops a queued item without a review decision.
func (s *ReviewService) Withdraw(ctx context.Context, itemID string) error {
	if _, err := s.queue.Resolve(ctx, itemID); err != nil {
		return fmt.Errorf("withdraw review item %s: %w", itemID, err)
	}
	s.publishDepth(ctx)
	return nil
}

// List returns up to limit pending items, highest priority first.
func (s *ReviewService) List(ctx context.Context, limit int) ([]domain.ReviewQueueItem, error) {
	return s.queue.List(ctx, limit)
}

// Count returns the review backlog.
func (s *ReviewService) Count(ctx context.Context) (int, error) {
	return s.queue.Count(ctx)
}

// Approve moves the product into the live catalog as a manual override.
func (s *ReviewService) Approve(ctx context.Context, itemID, reviewerID, notes string) (domain.CuratedProduct, error) {
	return s.resolve(ctx, "approve", itemID, reviewerID, notes, domain.StatusManualOverride)
}

// Reject marks the product rejected and records it in the rejection log.
func (s *ReviewService) Reject(ctx context.Context, itemID, reviewerID, reason string) (domain.CuratedProduct, error) {
	return s.resolve(ctx, "reject", itemID, reviewerID, reason, domain.StatusRejected)
}

func (s *ReviewService) resolve(ctx context.Context, op, itemID, reviewerID, notes string, status domain.ProductStatus) (domain.CuratedProduct, error) {
	if strings.TrimSpace(reviewerID) == "" {
		return domain.CuratedProduct{}, fmt.Errorf("%w: reviewer id is required", domain.ErrInvalidInput)
	}

	item, err := s.queue.Resolve(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotPending) {
			return domain.CuratedProduct{}, &domain.QueueStateError{ItemID: itemID, Op: op}
		}
		return domain.CuratedProduct{}, fmt.Errorf("%s review item %s: %w", op, itemID, err)
	}

	review := &domain.ReviewRecord{
		ReviewerID: reviewerID,
		Decision:   status,
		Notes:      notes,
		ReviewedAt: s.now().UTC(),
	}
	product := item.Product
	if s.products != nil {
		if err := s.products.UpdateStatus(ctx, product.ID, status, review); err != nil {
			// Put the item back so the decision can be retried.
			if addErr := s.queue.Add(ctx, item); addErr != nil && s.logger != nil {
				s.logger.Error("requeue review item failed", "item", itemID, "error", addErr)
			}
			return domain.CuratedProduct{}, fmt.Errorf("update product %s: %w", product.ID, err)
		}
	}
	product.Status = status
	product.Review = review
	product.UpdatedAt = review.ReviewedAt

	if status == domain.StatusRejected && s.rejections != nil {
		err := s.rejections.Record(ctx, domain.Rejection{
			SourceKey:  product.SourceKey,
			Source:     product.Source,
			ExternalID: product.ExternalID,
			Title:      product.Name,
			Stage:      domain.StageReview,
			Reason:     notes,
			Score:      product.Metrics.Overall,
			RejectedAt: review.ReviewedAt,
		})
		if err != nil && s.logger != nil {
			s.logger.Warn("record review rejection failed", "item", itemID, "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("review item resolved", "item", itemID, "op", op, "reviewer", reviewerID, "product", product.ID)
	}
	s.publishDepth(ctx)
	return product, nil
}

func (s *ReviewService) publishDepth(ctx context.Context) {
	if n, err := s.queue.Count(ctx); err == nil {
		metrics.SetReviewQueueDepth(n)
	}
}

// estimatedValue is the expected margin of a product, never negative.
func estimatedValue(p domain.CuratedProduct) float64 {
	margin := p.Price - p.CostPrice
	if margin < 0 {
		return 0
	}
	return math.Round(margin*100) / 100
}
