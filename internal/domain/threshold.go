package domain

import "time"

// ThresholdType selects the outcome a threshold routes to.
type ThresholdType string

const (
	ThresholdAutoApprove ThresholdType = "auto_approve"
	ThresholdReviewQueue ThresholdType = "review_queue"
	ThresholdReject      ThresholdType = "reject"
)

// Valid reports whether t is a known threshold type.
func (t ThresholdType) Valid() bool {
	switch t {
	case ThresholdAutoApprove, ThresholdReviewQueue, ThresholdReject:
		return true
	}
	return false
}

// Outcome maps the threshold type to the product status it produces.
func (t ThresholdType) Outcome() ProductStatus {
	switch t {
	case ThresholdAutoApprove:
		return StatusAutoApproved
	case ThresholdReviewQueue:
		return StatusPendingReview
	default:
		return StatusRejected
	}
}

// ThresholdConditions are ANDed together; zero values leave a bound open.
type ThresholdConditions struct {
	MinScore          float64  `json:"minScore,omitempty" yaml:"minScore"`
	MaxScore          float64  `json:"maxScore,omitempty" yaml:"maxScore"`
	MinPrice          float64  `json:"minPrice,omitempty" yaml:"minPrice"`
	MaxPrice          float64  `json:"maxPrice,omitempty" yaml:"maxPrice"`
	AllowedRegions    []string `json:"allowedRegions,omitempty" yaml:"allowedRegions"`
	RequiredKeywords  []string `json:"requiredKeywords,omitempty" yaml:"requiredKeywords"`
	ExcludedKeywords  []string `json:"excludedKeywords,omitempty" yaml:"excludedKeywords"`
	MinRating         float64  `json:"minRating,omitempty" yaml:"minRating"`
	MaxProcessingDays int      `json:"maxProcessingDays,omitempty" yaml:"maxProcessingDays"`
}

// QualityThreshold is a named, versioned routing rule.
type QualityThreshold struct {
	ID         string              `json:"id" yaml:"id"`
	Name       string              `json:"name" yaml:"name"`
	Type       ThresholdType       `json:"type" yaml:"type"`
	Version    int                 `json:"version" yaml:"-"`
	Active     bool                `json:"active" yaml:"active"`
	Conditions ThresholdConditions `json:"conditions" yaml:"conditions"`
	UpdatedAt  time.Time           `json:"updatedAt" yaml:"-"`
}
