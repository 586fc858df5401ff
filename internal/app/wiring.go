package app

import (
	"context"
	"fmt"
	"strings"

	"ProductCurator/internal/config"
	"ProductCurator/internal/infrastructure/catalog"
	"ProductCurator/internal/infrastructure/memory"
	"ProductCurator/internal/infrastructure/redisstore"
	"ProductCurator/internal/infrastructure/storage"
	"ProductCurator/internal/ports"
	"ProductCurator/internal/scoring"
	"ProductCurator/internal/supplier"
	"ProductCurator/internal/usecase"
)

const (
	supplierKindHTTP    = "http"
	supplierKindFixture = "fixture"
)

type stores struct {
	products   ports.ProductRepository
	rejections ports.RejectionLog
	queue      ports.ReviewQueue
	reports    ports.ReportRepository
	thresholds ports.ThresholdStore
	jobStates  ports.JobStateStore
	events     ports.Notifier
}

// openStores picks Postgres when a DSN is configured and memory otherwise.
// Redis, when configured, holds job state and receives operator events.
func (a *Application) openStores(ctx context.Context) (stores, error) {
	var st stores

	if dsn := a.cfg.Database.DSN; dsn != "" {
		db, err := storage.Open(ctx, dsn)
		if err != nil {
			return stores{}, err
		}
		a.closers = append(a.closers, db.Close)
		if err := storage.ApplyMigrations(ctx, db, a.logger.With("component", "migrations")); err != nil {
			_ = a.close()
			return stores{}, err
		}
		st.products = storage.NewProductRepository(db)
		st.rejections = storage.NewRejectionLog(db)
		st.queue = storage.NewReviewQueue(db)
		st.reports = storage.NewReportRepository(db)
		st.thresholds = storage.NewThresholdStore(db)
		a.logger.Info("using postgres storage")
	} else {
		st.products = memory.NewProductStore()
		st.rejections = memory.NewRejectionLog()
		st.queue = memory.NewReviewQueue()
		st.reports = memory.NewReportStore()
		st.thresholds = memory.NewThresholdStore()
		a.logger.Warn("DATABASE_DSN not set, using in-memory storage")
	}

	if url := a.cfg.Redis.URL; url != "" {
		rdb, err := redisstore.NewClient(ctx, url)
		if err != nil {
			_ = a.close()
			return stores{}, err
		}
		a.closers = append(a.closers, rdb.Close)
		st.jobStates = redisstore.NewJobStateStore(rdb, a.cfg.Redis.Prefix)
		st.events = redisstore.NewPublisher(rdb, a.cfg.Redis.Channel)
	} else {
		st.jobStates = memory.NewJobStateStore()
	}
	return st, nil
}

// buildSuppliers registers one client per configured supplier and derives fetch targets.
func buildSuppliers(suppliers []config.SupplierConfig, filter config.FilterConfig) (*supplier.Registry, []supplier.Target, error) {
	registry := supplier.NewRegistry()
	targets := make([]supplier.Target, 0, len(suppliers))
	seen := make(map[string]struct{}, len(suppliers))

	for _, sc := range suppliers {
		name := strings.TrimSpace(sc.Name)
		if name == "" {
			return nil, nil, fmt.Errorf("supplier without a name")
		}
		if _, dup := seen[name]; dup {
			return nil, nil, fmt.Errorf("supplier %s configured twice", name)
		}
		seen[name] = struct{}{}

		switch strings.ToLower(sc.Kind) {
		case "", supplierKindHTTP:
			if sc.BaseURL == "" {
				return nil, nil, fmt.Errorf("supplier %s: baseUrl is required", name)
			}
			registry.Register(catalog.NewHTTPClient(sc, nil))
		case supplierKindFixture:
			client, err := catalog.LoadFixtureClient(name, sc.FixturePath)
			if err != nil {
				return nil, nil, fmt.Errorf("supplier %s: %w", name, err)
			}
			registry.Register(client)
		default:
			return nil, nil, fmt.Errorf("supplier %s: unknown kind %q", name, sc.Kind)
		}

		targets = append(targets, supplier.Target{
			Supplier:   name,
			Categories: sc.Categories,
			Country:    sc.Country,
			MinPrice:   filter.MinPrice,
			MaxPrice:   filter.MaxPrice,
			PageSize:   sc.PageSize,
			MaxPages:   sc.MaxPages,
		})
	}
	return registry, targets, nil
}

// BuildJobs pairs configured job entries with their bodies. Unknown names are an error.
func BuildJobs(cfgJobs []config.JobConfig, bodies map[string]usecase.JobFunc) ([]usecase.Job, error) {
	jobs := make([]usecase.Job, 0, len(cfgJobs))
	for _, jc := range cfgJobs {
		run, ok := bodies[jc.Name]
		if !ok {
			return nil, fmt.Errorf("scheduler: unknown job %q", jc.Name)
		}
		jobs = append(jobs, usecase.Job{
			Name:     jc.Name,
			Interval: jc.Interval,
			Enabled:  jc.Enabled,
			Run:      run,
		})
	}
	return jobs, nil
}

func filterRules(f config.FilterConfig) scoring.FilterRules {
	return scoring.FilterRules{
		MinPrice:            f.MinPrice,
		MaxPrice:            f.MaxPrice,
		AllowedRegions:      f.AllowedRegions,
		MaxProcessingDays:   f.MaxProcessingDays,
		RequireFreeShipping: f.RequireFreeShipping,
		RequireInStock:      f.InStockRequired(),
		ExcludedKeywords:    f.ExcludedKeywords,
	}
}

func markupTiers(tiers []config.MarkupTier) []usecase.MarkupTier {
	out := make([]usecase.MarkupTier, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, usecase.MarkupTier{UpTo: t.UpTo, Multiplier: t.Multiplier})
	}
	return out
}
