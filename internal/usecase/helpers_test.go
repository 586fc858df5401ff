package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"ProductCurator/internal/config"
	"ProductCurator/internal/domain"
	"ProductCurator/internal/infrastructure/memory"
	"ProductCurator/internal/policy"
	"ProductCurator/internal/scoring"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type staticSource struct {
	batch domain.FetchBatch
	err   error
}

func (s staticSource) FetchCandidates(context.Context) (domain.FetchBatch, error) {
	return s.batch, s.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	errors   []string
	lowStock [][]domain.LowStockItem
	digests  []string
}

func (n *recordingNotifier) NotifyError(_ context.Context, job, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, job+": "+message)
	return nil
}

func (n *recordingNotifier) NotifyLowStock(_ context.Context, items []domain.LowStockItem) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lowStock = append(n.lowStock, items)
	return nil
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.digests = append(n.digests, digest)
	return nil
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

// luxuryTote scores 89 with the default keyword list.
func luxuryTote() domain.Candidate {
	return domain.Candidate{
		ID:            "tote-1",
		Source:        "demo",
		Title:         "premium leather tote",
		Description:   "<p>Handcrafted in small batches.</p>",
		Category:      "bags",
		Price:         600,
		Currency:      "USD",
		Images:        []string{"a", "b", "c", "d", "e"},
		Supplier:      domain.SupplierInfo{Name: "atelier", Country: "US", ProcessingDays: 1},
		Rating:        4.8,
		ReviewCount:   200,
		InStock:       true,
		StockQuantity: 40,
	}
}

// midVase scores 51: review queue territory.
func midVase() domain.Candidate {
	return domain.Candidate{
		ID:            "vase-1",
		Source:        "demo",
		Title:         "ceramic vase",
		Category:      "home-decor",
		Price:         250,
		Currency:      "USD",
		Images:        []string{"a", "b"},
		Supplier:      domain.SupplierInfo{Country: "US", ProcessingDays: 2},
		Rating:        4.4,
		ReviewCount:   40,
		InStock:       true,
		StockQuantity: 12,
	}
}

// plainMug scores 21 and is rejected.
func plainMug() domain.Candidate {
	return domain.Candidate{
		ID:            "mug-1",
		Source:        "demo",
		Title:         "coffee mug",
		Category:      "home-decor",
		Price:         60,
		Currency:      "USD",
		Supplier:      domain.SupplierInfo{Country: "FR", ProcessingDays: 3},
		Rating:        4.0,
		InStock:       true,
		StockQuantity: 100,
	}
}

// cheapRing is under the minimum price and gets filtered.
func cheapRing() domain.Candidate {
	return domain.Candidate{
		ID:       "ring-1",
		Source:   "demo",
		Title:    "simple ring",
		Price:    20,
		Supplier: domain.SupplierInfo{Country: "US", ProcessingDays: 1},
		InStock:  true,
	}
}

type testStores struct {
	products   *memory.ProductStore
	rejections *memory.RejectionLog
	queue      *memory.ReviewQueue
	reports    *memory.ReportStore
	reviews    *ReviewService
	router     *policy.Router
}

func newTestStores(t *testing.T) testStores {
	t.Helper()

	router, err := policy.NewRouter(config.DefaultThresholds())
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	s := testStores{
		products:   memory.NewProductStore(),
		rejections: memory.NewRejectionLog(),
		queue:      memory.NewReviewQueue(),
		reports:    memory.NewReportStore(),
		router:     router,
	}
	s.reviews = NewReviewService(s.queue, s.products, s.rejections, nil)
	s.reviews.now = fixedClock
	return s
}

func newTestEngine(t *testing.T, stores testStores, src staticSource, scorer Scorer) *Engine {
	t.Helper()

	if scorer == nil {
		scorer = scoring.NewScorer([]string{"premium", "handcrafted", "luxury"})
	}
	return NewEngine(EngineDeps{
		Source:     src,
		Products:   stores.products,
		Rejections: stores.rejections,
		Reviews:    stores.reviews,
		Filter: scoring.NewFilter(scoring.FilterRules{
			MinPrice:          50,
			MaxPrice:          5000,
			AllowedRegions:    []string{"US", "CA", "GB", "AU", "DE", "FR", "IT", "ES"},
			MaxProcessingDays: 3,
			RequireInStock:    true,
			ExcludedKeywords:  []string{"replica"},
		}),
		Scorer: scorer,
		Router: stores.router,
		Transform: NewTransformer(TransformerDeps{
			Pricing: NewPricing([]MarkupTier{{UpTo: 100, Multiplier: 2.5}, {UpTo: 500, Multiplier: 2.0}, {Multiplier: 1.6}}),
			Clock:   fixedClock,
		}),
		Clock: fixedClock,
	})
}

func batchOf(candidates ...domain.Candidate) staticSource {
	return staticSource{batch: domain.FetchBatch{Candidates: candidates, Attempts: 1}}
}
