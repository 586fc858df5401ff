package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ProductCurator/internal/config"
	"ProductCurator/internal/domain"
	"ProductCurator/internal/logging"
	"ProductCurator/internal/usecase"
)

const fixtureDoc = `products:
  - id: tote-1
    title: Handcrafted genuine leather tote
    description: Artisan made luxury tote bag
    category: bags
    price: 380
    images: [a.jpg, b.jpg, c.jpg, d.jpg, e.jpg]
    supplier: {name: Atelier, country: IT, processingDays: 1, rating: 4.9}
    rating: 4.8
    reviewCount: 320
    inStock: true
    stockQuantity: 40
  - id: mug-1
    title: Plain mug
    category: bags
    price: 60
    images: [a.jpg]
    supplier: {name: Generic, country: US, processingDays: 3, rating: 3.1}
    rating: 3.0
    reviewCount: 2
    inStock: true
    stockQuantity: 100
  - id: far-1
    title: Sterling silver pendant
    category: bags
    price: 210
    images: [a.jpg, b.jpg]
    supplier: {name: Overseas, country: CN, processingDays: 2, rating: 4.5}
    inStock: true
    stockQuantity: 10
`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(fixtureDoc), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return config.Config{
		HTTP: config.HTTPConfig{Addr: "127.0.0.1:0", AdminSecret: "test"},
		Scheduler: config.SchedulerConfig{Jobs: []config.JobConfig{
			{Name: usecase.JobDailyCuration, Interval: 24 * time.Hour, Enabled: true},
			{Name: usecase.JobInventorySync, Interval: 6 * time.Hour, Enabled: true},
			{Name: usecase.JobWeeklyDigest, Interval: 7 * 24 * time.Hour, Enabled: false},
		}},
		Suppliers: []config.SupplierConfig{
			{Name: "fixture", Kind: "fixture", FixturePath: path, Categories: []string{"bags"}},
		},
		Curation: config.CurationConfig{
			Filter: config.FilterConfig{
				MinPrice:       50,
				MaxPrice:       5000,
				AllowedRegions: []string{"US", "IT"},
			},
			LuxuryKeywords:    []string{"luxury", "handcrafted", "artisan", "genuine leather", "sterling silver"},
			Thresholds:        config.DefaultThresholds(),
			MarkupTiers:       []config.MarkupTier{{UpTo: 0, Multiplier: 2}},
			LowStockThreshold: 5,
			HistoryDepth:      7,
		},
	}
}

func TestRunJobWithMemoryStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	application, err := New(ctx, testConfig(t), logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state, err := application.RunJob(ctx, usecase.JobDailyCuration)
	if err != nil {
		t.Fatalf("RunJob: %v", err)
	}
	if state.Status != domain.JobCompleted || state.RunCount != 1 {
		t.Fatalf("unexpected job state: %+v", state)
	}
	if !strings.HasPrefix(state.LastSummary, "fetched 3") {
		t.Fatalf("unexpected summary: %q", state.LastSummary)
	}

	report, err := application.Operations().LatestReport(ctx)
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if report.Fetched != 3 || report.Filtered != 1 || report.Processed != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestRunJobUnknownName(t *testing.T) {
	t.Parallel()

	application, err := New(context.Background(), testConfig(t), logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := application.RunJob(context.Background(), "nightly-reindex"); !errors.Is(err, domain.ErrUnknownJob) {
		t.Fatalf("expected ErrUnknownJob, got %v", err)
	}
}

func TestRunServesUntilCancelled(t *testing.T) {
	t.Parallel()

	application, err := New(context.Background(), testConfig(t), logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestBuildJobsRejectsUnknownNames(t *testing.T) {
	t.Parallel()

	bodies := map[string]usecase.JobFunc{
		"known": func(context.Context) (string, error) { return "", nil },
	}
	jobs, err := BuildJobs([]config.JobConfig{{Name: "known", Interval: time.Hour, Enabled: true}}, bodies)
	if err != nil || len(jobs) != 1 || jobs[0].Interval != time.Hour || !jobs[0].Enabled {
		t.Fatalf("unexpected jobs: %+v, %v", jobs, err)
	}
	if _, err := BuildJobs([]config.JobConfig{{Name: "other"}}, bodies); err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestBuildSuppliersValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		suppliers []config.SupplierConfig
		wantErr   string
	}{
		{name: "http", suppliers: []config.SupplierConfig{{Name: "a", BaseURL: "https://a.example", Categories: []string{"x", "y"}}}},
		{name: "missing base url", suppliers: []config.SupplierConfig{{Name: "a", Kind: "http"}}, wantErr: "baseUrl"},
		{name: "unknown kind", suppliers: []config.SupplierConfig{{Name: "a", Kind: "ftp"}}, wantErr: "unknown kind"},
		{name: "duplicate", suppliers: []config.SupplierConfig{
			{Name: "a", BaseURL: "https://a.example"},
			{Name: "a", BaseURL: "https://b.example"},
		}, wantErr: "twice"},
		{name: "missing fixture", suppliers: []config.SupplierConfig{{Name: "a", Kind: "fixture", FixturePath: "/nonexistent.yaml"}}, wantErr: "read fixture"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			reg, targets, err := buildSuppliers(tc.suppliers, config.FilterConfig{MinPrice: 50})
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildSuppliers: %v", err)
			}
			if len(reg.Names()) != 1 || len(targets) != 1 || targets[0].MinPrice != 50 {
				t.Fatalf("unexpected registry/targets: %v %+v", reg.Names(), targets)
			}
		})
	}
}
