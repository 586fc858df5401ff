package scoring

import (
	"fmt"
	"strings"

	"ProductCurator/internal/domain"
)

// FilterRules configures the pre-scoring reject list.
type FilterRules struct {
	MinPrice            float64
	MaxPrice            float64
	AllowedRegions      []string
	MaxProcessingDays   int
	RequireFreeShipping bool
	RequireInStock      bool
	ExcludedKeywords    []string
}

// Filter drops candidates that can never be listed, before scoring.
type Filter struct {
	rules    FilterRules
	regions  map[string]struct{}
	excluded []string
}

// NewFilter prepares lookups for the given rules.
func NewFilter(rules FilterRules) *Filter {
	f := &Filter{rules: rules}
	if len(rules.AllowedRegions) > 0 {
		f.regions = make(map[string]struct{}, len(rules.AllowedRegions))
		for _, r := range rules.AllowedRegions {
			f.regions[strings.ToUpper(strings.TrimSpace(r))] = struct{}{}
		}
	}
	for _, kw := range rules.ExcludedKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			f.excluded = append(f.excluded, kw)
		}
	}
	return f
}

// Check returns false and the first failing rule when c must be dropped.
func (f *Filter) Check(c domain.Candidate) (bool, string) {
	if c.Price < f.rules.MinPrice {
		return false, fmt.Sprintf("price %.2f below minimum %.2f", c.Price, f.rules.MinPrice)
	}
	if f.rules.MaxPrice > 0 && c.Price > f.rules.MaxPrice {
		return false, fmt.Sprintf("price %.2f above maximum %.2f", c.Price, f.rules.MaxPrice)
	}
	if f.regions != nil {
		region := strings.ToUpper(strings.TrimSpace(c.Supplier.Country))
		if _, ok := f.regions[region]; !ok {
			return false, fmt.Sprintf("supplier region %q not allowed", c.Supplier.Country)
		}
	}
	if f.rules.MaxProcessingDays > 0 && c.Supplier.ProcessingDays > f.rules.MaxProcessingDays {
		return false, fmt.Sprintf("processing time %dd exceeds %dd", c.Supplier.ProcessingDays, f.rules.MaxProcessingDays)
	}
	if f.rules.RequireFreeShipping && !c.FreeShipping {
		return false, "free shipping required"
	}
	if f.rules.RequireInStock && !c.InStock {
		return false, "out of stock"
	}
	if kw, ok := containsAny(c.SearchText(), f.excluded); ok {
		return false, fmt.Sprintf("excluded keyword %q", kw)
	}
	return true, ""
}

func containsAny(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}
