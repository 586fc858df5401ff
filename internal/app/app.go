package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ProductCurator/internal/config"
	"ProductCurator/internal/domain"
	"ProductCurator/internal/httpapi"
	"ProductCurator/internal/infrastructure/catalog"
	"ProductCurator/internal/infrastructure/llm"
	"ProductCurator/internal/infrastructure/notify"
	"ProductCurator/internal/infrastructure/scheduler"
	"ProductCurator/internal/infrastructure/telegram"
	"ProductCurator/internal/infrastructure/vision"
	"ProductCurator/internal/logging"
	"ProductCurator/internal/policy"
	"ProductCurator/internal/ports"
	"ProductCurator/internal/scoring"
	"ProductCurator/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	runner  *usecase.Runner
	ops     *usecase.Operations
	server  *httpapi.Server
	closers []func() error
}

// New builds every adapter and use case from cfg. Storage falls back to memory
// when no database DSN is configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	channels := []ports.Notifier{}
	if tg := telegram.NewNotifier(cfg.Notifications.Telegram); tg.Configured() {
		channels = append(channels, tg)
	}
	if st.events != nil {
		channels = append(channels, st.events)
	}
	notifier := notify.NewMulti(baseLogger.With("component", "notify"), channels...)
	if notifier.Len() == 0 {
		baseLogger.Info("no notification channels configured")
	}

	registry, targets, err := buildSuppliers(cfg.Suppliers, cfg.Curation.Filter)
	if err != nil {
		_ = a.close()
		return nil, err
	}
	source := catalog.NewSource(registry, targets, cfg.Curation.FetchTimeout, cfg.Curation.FetchConcurrency,
		baseLogger.With("component", "source"))

	var images ports.ImageAssessor
	if cfg.Vision.Endpoint != "" {
		images = vision.NewClient(cfg.Vision.Endpoint, cfg.Vision.APIKey)
	}
	var enhancer ports.DescriptionEnhancer
	if cfg.ChatGPT.APIKey != "" {
		enhancer = llm.NewChatGPTClient(cfg.ChatGPT)
	}

	thresholds, err := usecase.LoadThresholds(ctx, st.thresholds, cfg.Curation.Thresholds)
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("load thresholds: %w", err)
	}
	router, err := policy.NewRouter(thresholds)
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("build router: %w", err)
	}

	reviews := usecase.NewReviewService(st.queue, st.products, st.rejections, baseLogger.With("component", "review"))
	engine := usecase.NewEngine(usecase.EngineDeps{
		Source:     source,
		Products:   st.products,
		Rejections: st.rejections,
		Reviews:    reviews,
		Filter:     scoring.NewFilter(filterRules(cfg.Curation.Filter)),
		Scorer:     scoring.NewScorer(cfg.Curation.LuxuryKeywords),
		Router:     router,
		Transform: usecase.NewTransformer(usecase.TransformerDeps{
			Pricing:  usecase.NewPricing(markupTiers(cfg.Curation.MarkupTiers)),
			Enhancer: enhancer,
			Logger:   baseLogger.With("component", "transform"),
		}),
		Images: images,
		Logger: baseLogger.With("component", "engine"),
	})

	bodies := map[string]usecase.JobFunc{
		usecase.JobDailyCuration: usecase.NewCurationService(engine, st.reports, reviews, cfg.Curation.HistoryDepth,
			baseLogger.With("component", "curation")).Job(),
		usecase.JobInventorySync: usecase.NewInventorySync(source, st.products, notifier, cfg.Curation.LowStockThreshold,
			baseLogger.With("component", "inventory")).Job(),
		usecase.JobWeeklyDigest: usecase.NewWeeklyDigest(st.reports, st.products, notifier).Job(),
	}
	jobs, err := BuildJobs(cfg.Scheduler.Jobs, bodies)
	if err != nil {
		_ = a.close()
		return nil, err
	}

	runner, err := usecase.NewRunner(usecase.RunnerDeps{
		Driver:   scheduler.NewCronDriver(cfg.Scheduler.Location(), baseLogger.With("component", "cron")),
		States:   st.jobStates,
		Notifier: notifier,
		Logger:   baseLogger.With("component", "runner"),
	}, jobs)
	if err != nil {
		_ = a.close()
		return nil, err
	}
	a.runner = runner

	a.ops = usecase.NewOperations(usecase.OperationsDeps{
		Runner:     runner,
		Router:     router,
		Thresholds: st.thresholds,
		Reviews:    reviews,
		Products:   st.products,
		Rejections: st.rejections,
		Reports:    st.reports,
		Logger:     baseLogger.With("component", "operations"),
	})

	server, err := httpapi.NewServer(a.ops, cfg.HTTP.AdminSecret, baseLogger.With("component", "http"))
	if err != nil {
		_ = a.close()
		return nil, err
	}
	a.server = server
	return a, nil
}

// Operations exposes the admin facade, mainly for tests and one-off commands.
func (a *Application) Operations() *usecase.Operations {
	return a.ops
}

// Run starts the scheduler and the admin API and blocks until ctx is cancelled
// or the server fails, then shuts both down.
func (a *Application) Run(ctx context.Context) error {
	if err := a.runner.Start(ctx); err != nil {
		_ = a.close()
		return fmt.Errorf("start scheduler: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("admin API listening", "addr", a.cfg.HTTP.Addr)
		serveErr <- a.server.Start(a.cfg.HTTP.Addr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("admin API: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return errors.Join(runErr, a.Shutdown(shutdownCtx))
}

// RunJob executes one named job synchronously without starting the scheduler.
func (a *Application) RunJob(ctx context.Context, name string) (domain.JobState, error) {
	defer func() { _ = a.close() }()
	return a.runner.Trigger(ctx, name)
}

// Shutdown stops the HTTP server first, then waits for running jobs.
func (a *Application) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop admin API: %w", err))
	}
	if err := a.runner.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	}
	if err := a.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *Application) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
