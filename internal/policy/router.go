// Package policy routes scored candidates to a curation outcome.
package policy

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"ProductCurator/internal/domain"
)

// RouteInput is everything a threshold may inspect.
type RouteInput struct {
	Metrics   domain.QualityMetrics
	Candidate domain.Candidate
}

// Decision is the routing outcome and the rule that produced it.
type Decision struct {
	Status domain.ProductStatus
	RuleID string
	Reason string
}

var evaluationOrder = []domain.ThresholdType{
	domain.ThresholdAutoApprove,
	domain.ThresholdReviewQueue,
	domain.ThresholdReject,
}

// Router evaluates an ordered threshold list; the first matching rule wins.
type Router struct {
	mu         sync.RWMutex
	thresholds []domain.QualityThreshold
	now        func() time.Time
}

// NewRouter validates and copies the initial thresholds.
func NewRouter(thresholds []domain.QualityThreshold) (*Router, error) {
	r := &Router{now: time.Now}
	for _, th := range thresholds {
		if err := Validate(th); err != nil {
			return nil, err
		}
		if th.Version == 0 {
			th.Version = 1
		}
		r.thresholds = append(r.thresholds, cloneThreshold(th))
	}
	return r, nil
}

// Classify routes on score and price alone.
func (r *Router) Classify(metrics domain.QualityMetrics, price float64) domain.ProductStatus {
	return r.Route(RouteInput{Metrics: metrics, Candidate: domain.Candidate{Price: price}}).Status
}

// Route checks auto_approve rules, then review_queue, then reject; unmatched input is rejected.
func (r *Router) Route(in RouteInput) Decision {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, kind := range evaluationOrder {
		for _, th := range r.thresholds {
			if !th.Active || th.Type != kind {
				continue
			}
			if matches(th.Conditions, in) {
				return Decision{
					Status: kind.Outcome(),
					RuleID: th.ID,
					Reason: fmt.Sprintf("score %.1f matched %s rule %s", in.Metrics.Overall, kind, th.ID),
				}
			}
		}
	}

	return Decision{
		Status: domain.StatusRejected,
		Reason: fmt.Sprintf("score %.1f matched no threshold", in.Metrics.Overall),
	}
}

// Thresholds returns a copy of the current rule list in evaluation order.
func (r *Router) Thresholds() []domain.QualityThreshold {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.QualityThreshold, 0, len(r.thresholds))
	for _, th := range r.thresholds {
		out = append(out, cloneThreshold(th))
	}
	return out
}

// Update inserts or replaces a threshold by ID and bumps its version.
func (r *Router) Update(th domain.QualityThreshold) (domain.QualityThreshold, error) {
	if err := Validate(th); err != nil {
		return domain.QualityThreshold{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	th = cloneThreshold(th)
	th.UpdatedAt = r.now().UTC()
	for i, existing := range r.thresholds {
		if existing.ID == th.ID {
			th.Version = existing.Version + 1
			r.thresholds[i] = th
			return cloneThreshold(th), nil
		}
	}
	th.Version = 1
	r.thresholds = append(r.thresholds, th)
	return cloneThreshold(th), nil
}

// Validate rejects thresholds that could never be evaluated sensibly.
func Validate(th domain.QualityThreshold) error {
	switch {
	case strings.TrimSpace(th.ID) == "":
		return fmt.Errorf("%w: id is required", domain.ErrInvalidThreshold)
	case !th.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", domain.ErrInvalidThreshold, th.Type)
	}
	c := th.Conditions
	if c.MinScore < 0 || c.MinScore > 100 || c.MaxScore < 0 || c.MaxScore > 100 {
		return fmt.Errorf("%w: scores must be within [0,100]", domain.ErrInvalidThreshold)
	}
	if c.MaxScore > 0 && c.MaxScore < c.MinScore {
		return fmt.Errorf("%w: maxScore below minScore", domain.ErrInvalidThreshold)
	}
	if c.MinPrice < 0 || c.MaxPrice < 0 || (c.MaxPrice > 0 && c.MaxPrice < c.MinPrice) {
		return fmt.Errorf("%w: invalid price bounds", domain.ErrInvalidThreshold)
	}
	if c.MaxProcessingDays < 0 || c.MinRating < 0 {
		return fmt.Errorf("%w: negative bound", domain.ErrInvalidThreshold)
	}
	return nil
}

func matches(c domain.ThresholdConditions, in RouteInput) bool {
	score := in.Metrics.Overall
	cand := in.Candidate

	if score < c.MinScore {
		return false
	}
	if c.MaxScore > 0 && score > c.MaxScore {
		return false
	}
	if cand.Price < c.MinPrice {
		return false
	}
	if c.MaxPrice > 0 && cand.Price > c.MaxPrice {
		return false
	}
	if c.MinRating > 0 && cand.Rating < c.MinRating {
		return false
	}
	if c.MaxProcessingDays > 0 && cand.Supplier.ProcessingDays > c.MaxProcessingDays {
		return false
	}
	if len(c.AllowedRegions) > 0 && !containsFold(c.AllowedRegions, cand.Supplier.Country) {
		return false
	}

	text := cand.SearchText()
	for _, kw := range c.RequiredKeywords {
		if !strings.Contains(text, strings.ToLower(kw)) {
			return false
		}
	}
	for _, kw := range c.ExcludedKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

func cloneThreshold(th domain.QualityThreshold) domain.QualityThreshold {
	c := th.Conditions
	c.AllowedRegions = append([]string(nil), c.AllowedRegions...)
	c.RequiredKeywords = append([]string(nil), c.RequiredKeywords...)
	c.ExcludedKeywords = append([]string(nil), c.ExcludedKeywords...)
	th.Conditions = c
	return th
}
