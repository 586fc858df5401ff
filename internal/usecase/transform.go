package usecase

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"ProductCurator/internal/content"
	"ProductCurator/internal/domain"
	"ProductCurator/internal/policy"
	"ProductCurator/internal/ports"
)

const enhancerInputLimit = 2000

// MarkupTier multiplies cost prices up to UpTo; UpTo 0 means unbounded.
type MarkupTier struct {
	UpTo       float64
	Multiplier float64
}

// Pricing turns supplier cost into a storefront price.
type Pricing struct {
	tiers []MarkupTier
}

// NewPricing sorts tiers ascending with the unbounded tier last.
func NewPricing(tiers []MarkupTier) Pricing {
	sorted := append([]MarkupTier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].UpTo, sorted[j].UpTo
		if a == 0 {
			return false
		}
		if b == 0 {
			return true
		}
		return a < b
	})
	return Pricing{tiers: sorted}
}

// Retail applies the first matching markup tier and charm-prices the result.
func (p Pricing) Retail(cost float64) float64 {
	if cost <= 0 {
		return 0
	}
	multiplier := 1.0
	for _, tier := range p.tiers {
		if tier.UpTo == 0 || cost <= tier.UpTo {
			multiplier = tier.Multiplier
			break
		}
	}
	return charmPrice(cost * multiplier)
}

// charmPrice rounds up to the next whole unit and subtracts a cent: 960 -> 959.99.
func charmPrice(v float64) float64 {
	v = math.Round(v*100) / 100
	return math.Round((math.Ceil(v)-0.01)*100) / 100
}

// ReviewPriority ranks review items by score and supplier price.
func ReviewPriority(score, costPrice float64) domain.Priority {
	switch {
	case score >= 65 || costPrice >= 500:
		return domain.PriorityHigh
	case score >= 58:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// TransformerDeps configures the candidate-to-product transformation.
type TransformerDeps struct {
	Pricing  Pricing
	Enhancer ports.DescriptionEnhancer
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Transformer builds CuratedProducts from routed candidates.
type Transformer struct {
	pricing  Pricing
	enhancer ports.DescriptionEnhancer
	logger   *slog.Logger
	now      func() time.Time
}

// NewTransformer constructs a Transformer.
func NewTransformer(deps TransformerDeps) *Transformer {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Transformer{pricing: deps.Pricing, enhancer: deps.Enhancer, logger: deps.Logger, now: clock}
}

// Product denormalises the candidate into a new CuratedProduct.
// Copy is only sent to the enhancer for products that may go live.
func (t *Transformer) Product(ctx context.Context, c domain.Candidate, m domain.QualityMetrics, d policy.Decision) (domain.CuratedProduct, error) {
	now := t.now().UTC()

	name := content.EnhanceName(c.Title)
	if name == "" {
		name = strings.TrimSpace(c.Title)
	}

	description := content.Sanitize(c.Description)
	if t.enhancer != nil && d.Status != domain.StatusRejected {
		plain := content.Truncate(content.PlainText(c.Description), enhancerInputLimit)
		enhanced, err := t.enhancer.Enhance(ctx, name, plain)
		switch {
		case err != nil:
			if t.logger != nil {
				t.logger.Warn("description enhancement failed", "candidate", c.Key(), "error", err)
			}
		case strings.TrimSpace(enhanced) != "":
			description = strings.TrimSpace(enhanced)
		}
	}

	return domain.CuratedProduct{
		ID:          uuid.NewString(),
		SourceKey:   c.Key(),
		ExternalID:  c.ID,
		Source:      c.Source,
		Name:        name,
		Description: description,
		CostPrice:   c.Price,
		Price:       t.pricing.Retail(c.Price),
		Currency:    c.Currency,
		Images:      append([]string(nil), c.Images...),
		Category:    c.Category,
		Supplier:    c.Supplier,
		Metrics:     m,
		Status:      d.Status,
		RuleID:      d.RuleID,
		Reason:      d.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
