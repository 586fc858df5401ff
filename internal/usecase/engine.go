package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/metrics"
	"ProductCurator/internal/policy"
	"ProductCurator/internal/ports"
)

// Scorer computes quality metrics for a candidate.
type Scorer interface {
	Score(c domain.Candidate) domain.QualityMetrics
}

// CandidateFilter drops candidates before scoring.
type CandidateFilter interface {
	Check(c domain.Candidate) (bool, string)
}

// Router maps scored candidates to an outcome.
type Router interface {
	Route(in policy.RouteInput) policy.Decision
}

// EngineDeps wires all driven adapters into the curation engine.
type EngineDeps struct {
	Source     ports.CandidateSource
	Products   ports.ProductRepository
	Rejections ports.RejectionLog
	Reviews    *ReviewService
	Filter     CandidateFilter
	Scorer     Scorer
	Router     Router
	Transform  *Transformer
	Images     ports.ImageAssessor
	Logger     *slog.Logger
	Clock      func() time.Time
}

// Engine runs fetch, dedupe, filter, score, route and persist for one run.
type Engine struct {
	source     ports.CandidateSource
	products   ports.ProductRepository
	rejections ports.RejectionLog
	reviews    *ReviewService
	filter     CandidateFilter
	scorer     Scorer
	router     Router
	transform  *Transformer
	images     ports.ImageAssessor
	logger     *slog.Logger
	now        func() time.Time
}

// NewEngine constructs the orchestration component.
func NewEngine(deps EngineDeps) *Engine {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	transform := deps.Transform
	if transform == nil {
		transform = NewTransformer(TransformerDeps{Clock: clock})
	}
	return &Engine{
		source:     deps.Source,
		products:   deps.Products,
		rejections: deps.Rejections,
		reviews:    deps.Reviews,
		filter:     deps.Filter,
		scorer:     deps.Scorer,
		router:     deps.Router,
		transform:  transform,
		images:     deps.Images,
		logger:     deps.Logger,
		now:        clock,
	}
}

type outcome string

const (
	outcomeAutoApproved  outcome = "auto_approved"
	outcomePendingReview outcome = "pending_review"
	outcomeRejected      outcome = "rejected"
	outcomeFiltered      outcome = "filtered"
	outcomeSkipped       outcome = "skipped"
	outcomeFailed        outcome = "failed"
)

// RunOnce executes one curation run. It never panics; every failure ends up in RunResult.Errors.
func (e *Engine) RunOnce(ctx context.Context) domain.RunResult {
	result := domain.RunResult{RunID: uuid.NewString(), StartedAt: e.now().UTC()}
	e.info("curation run started", "run_id", result.RunID)

	batch, err := e.fetch(ctx)
	if err != nil {
		return e.finishFatal(result, fmt.Sprintf("system: fetch candidates: %v", err))
	}
	if batch.TotalFailure() {
		return e.finishFatal(result, fmt.Sprintf("system: all %d supplier fetches failed, first error: %v", batch.Attempts, batch.Failures[0]))
	}
	for _, f := range batch.Failures {
		result.Errors = append(result.Errors, f.Error())
	}

	result.Fetched = len(batch.Candidates)
	processed := e.alreadyProcessed(ctx, batch.Candidates, &result)

	seen := make(map[string]bool, len(batch.Candidates))
	for _, candidate := range batch.Candidates {
		key := candidate.Key()
		if processed[key] || seen[key] {
			result.Skipped++
			metrics.RecordCandidate(string(outcomeSkipped))
			continue
		}
		seen[key] = true

		out, score, err := e.processCandidate(ctx, candidate)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			e.warn("candidate failed", "run_id", result.RunID, "error", err)
			metrics.RecordCandidate(string(outcomeFailed))
			continue
		}
		if out != outcomeFiltered {
			result.Scores = append(result.Scores, score)
			metrics.ObserveScore(score)
		}
		metrics.RecordCandidate(string(out))

		switch out {
		case outcomeAutoApproved:
			result.AutoApproved++
		case outcomePendingReview:
			result.PendingReview++
		case outcomeRejected:
			result.Rejected++
		case outcomeFiltered:
			result.Filtered++
		}
	}

	result.FinishedAt = e.now().UTC()
	runOutcome := "ok"
	if len(result.Errors) > 0 {
		runOutcome = "partial"
	}
	metrics.RecordRun(runOutcome)
	e.info("curation run finished",
		"run_id", result.RunID,
		"fetched", result.Fetched,
		"auto_approved", result.AutoApproved,
		"pending_review", result.PendingReview,
		"rejected", result.Rejected,
		"filtered", result.Filtered,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"errors", len(result.Errors))
	return result
}

func (e *Engine) fetch(ctx context.Context) (batch domain.FetchBatch, err error) {
	if e.source == nil {
		return domain.FetchBatch{}, fmt.Errorf("candidate source is not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return e.source.FetchCandidates(ctx)
}

func (e *Engine) finishFatal(result domain.RunResult, msg string) domain.RunResult {
	result.Errors = []string{msg}
	result.FinishedAt = e.now().UTC()
	metrics.RecordRun("failed")
	e.logError("curation run failed", "run_id", result.RunID, "error", msg)
	return result
}

// alreadyProcessed degrades to an empty set on lookup failure; unique source keys
// in the product store still refuse duplicates.
func (e *Engine) alreadyProcessed(ctx context.Context, candidates []domain.Candidate, result *domain.RunResult) map[string]bool {
	if e.products == nil || len(candidates) == 0 {
		return map[string]bool{}
	}
	keys := make([]string, len(candidates))
	for i, c := range candidates {
		keys[i] = c.Key()
	}
	processed, err := e.products.AlreadyProcessed(ctx, keys)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("load processed: %v", err))
		e.warn("dedupe lookup failed", "error", err)
		return map[string]bool{}
	}
	return processed
}

func (e *Engine) processCandidate(ctx context.Context, c domain.Candidate) (out outcome, score float64, err error) {
	stage := "filter"
	defer func() {
		if rec := recover(); rec != nil {
			err = &domain.CandidateProcessingError{CandidateID: c.Key(), Stage: stage, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()
	fail := func(err error) (outcome, float64, error) {
		return outcomeFailed, 0, &domain.CandidateProcessingError{CandidateID: c.Key(), Stage: stage, Err: err}
	}

	if e.filter != nil {
		if ok, reason := e.filter.Check(c); !ok {
			if err := e.reject(ctx, c, domain.StageFilter, reason, 0); err != nil {
				return fail(err)
			}
			e.debug("candidate filtered", "candidate", c.Key(), "reason", reason)
			return outcomeFiltered, 0, nil
		}
	}

	stage = "images"
	if e.images != nil && len(c.Images) > 0 {
		usable, err := e.images.UsableImages(ctx, c)
		if err != nil {
			e.warn("image assessment failed, keeping supplier images", "candidate", c.Key(), "error", err)
		} else {
			c.Images = usable
		}
	}

	stage = "score"
	if e.scorer == nil || e.router == nil {
		return fail(fmt.Errorf("scorer or router is not configured"))
	}
	m := e.scorer.Score(c)
	decision := e.router.Route(policy.RouteInput{Metrics: m, Candidate: c})

	stage = "transform"
	product, err := e.transform.Product(ctx, c, m, decision)
	if err != nil {
		return fail(err)
	}

	// The sink is written before the product: a saved product is skipped by later
	// runs, so it must never exist without its queue item or rejection record.
	switch decision.Status {
	case domain.StatusAutoApproved:
		stage = "persist"
		if err := e.save(ctx, product); err != nil {
			return fail(err)
		}
		return outcomeAutoApproved, m.Overall, nil
	case domain.StatusPendingReview:
		stage = "enqueue"
		var item domain.ReviewQueueItem
		if e.reviews != nil {
			priority := ReviewPriority(m.Overall, c.Price)
			item, err = e.reviews.Add(ctx, product, decision.Reason, priority)
			if err != nil {
				return fail(err)
			}
		}
		stage = "persist"
		if err := e.save(ctx, product); err != nil {
			if e.reviews != nil {
				if rbErr := e.reviews.Withdraw(ctx, item.ID); rbErr != nil {
					e.warn("withdraw review item failed", "candidate", c.Key(), "item", item.ID, "error", rbErr)
				}
			}
			return fail(err)
		}
		return outcomePendingReview, m.Overall, nil
	default:
		stage = "reject"
		if err := e.reject(ctx, c, domain.StageScore, decision.Reason, m.Overall); err != nil {
			return fail(err)
		}
		stage = "persist"
		if err := e.save(ctx, product); err != nil {
			return fail(err)
		}
		return outcomeRejected, m.Overall, nil
	}
}

func (e *Engine) save(ctx context.Context, product domain.CuratedProduct) error {
	if e.products == nil {
		return nil
	}
	return e.products.Save(ctx, product)
}

func (e *Engine) reject(ctx context.Context, c domain.Candidate, stage domain.RejectionStage, reason string, score float64) error {
	if e.rejections == nil {
		return nil
	}
	return e.rejections.Record(ctx, domain.Rejection{
		SourceKey:  c.Key(),
		Source:     c.Source,
		ExternalID: c.ID,
		Title:      c.Title,
		Stage:      stage,
		Reason:     reason,
		Score:      score,
		RejectedAt: e.now().UTC(),
	})
}

func (e *Engine) debug(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func (e *Engine) info(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}

func (e *Engine) warn(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}

func (e *Engine) logError(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Error(msg, args...)
	}
}
