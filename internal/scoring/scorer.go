// Package scoring computes quality metrics for supplier candidates and
// applies the cheap pre-scoring filter.
package scoring

import (
	"math"
	"strings"

	"ProductCurator/internal/domain"
)

const (
	maxPriceScore    = 30
	maxRatingScore   = 25
	maxSupplierScore = 20
	maxImageScore    = 15
	maxLuxuryScore   = 10
	maxOverall       = 100
	pointsPerKeyword = 2
)

var regionBonus = map[string]float64{
	"US": 10,
	"CA": 8, "GB": 8, "AU": 8,
	"DE": 6, "FR": 6, "IT": 6, "ES": 6,
}

// Scorer is deterministic for a fixed keyword list.
type Scorer struct {
	keywords []string
}

// NewScorer normalises and dedupes the luxury keyword list.
func NewScorer(luxuryKeywords []string) *Scorer {
	seen := make(map[string]struct{}, len(luxuryKeywords))
	keywords := make([]string, 0, len(luxuryKeywords))
	for _, kw := range luxuryKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}
	return &Scorer{keywords: keywords}
}

// Score computes every sub-score and the clamped overall score.
func (s *Scorer) Score(c domain.Candidate) domain.QualityMetrics {
	matched := s.matchKeywords(c.SearchText())

	m := domain.QualityMetrics{
		PriceScore:      PriceScore(c.Price),
		RatingScore:     RatingScore(c.Rating, c.ReviewCount),
		SupplierScore:   SupplierScore(c.Supplier.Country, c.Supplier.ProcessingDays),
		ImageScore:      ImageScore(len(c.Images)),
		LuxuryScore:     math.Min(float64(len(matched)*pointsPerKeyword), maxLuxuryScore),
		MatchedKeywords: matched,
	}
	m.Overall = math.Min(m.PriceScore+m.RatingScore+m.SupplierScore+m.ImageScore+m.LuxuryScore, maxOverall)
	return m
}

// PriceScore is a step function of the supplier price.
func PriceScore(price float64) float64 {
	switch {
	case price >= 500:
		return maxPriceScore
	case price >= 200:
		return 25
	case price >= 100:
		return 20
	case price >= 50:
		return 15
	default:
		return 0
	}
}

// RatingScore rewards ratings above 4.0 and review volume.
func RatingScore(rating float64, reviews int) float64 {
	volume := math.Min(float64(reviews)/20, 12.5)
	return clamp((rating-4.0)*12.5+volume, 0, maxRatingScore)
}

// SupplierScore combines the region bonus and processing speed.
func SupplierScore(country string, processingDays int) float64 {
	score := regionBonus[strings.ToUpper(strings.TrimSpace(country))]
	switch {
	case processingDays <= 1:
		score += 10
	case processingDays <= 2:
		score += 5
	}
	return math.Min(score, maxSupplierScore)
}

// ImageScore rewards galleries of two or more images.
func ImageScore(count int) float64 {
	switch {
	case count >= 4:
		return math.Min(float64(5+2*count), maxImageScore)
	case count >= 2:
		return float64(2 * count)
	default:
		return 0
	}
}

func (s *Scorer) matchKeywords(text string) []string {
	var matched []string
	for _, kw := range s.keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
