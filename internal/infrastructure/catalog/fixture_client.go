package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/ports"
)

// FixtureClient serves candidates from a static YAML catalog, for local runs and demos.
type FixtureClient struct {
	name  string
	items []domain.Candidate
}

var _ ports.SupplierClient = (*FixtureClient)(nil)

type fixtureFile struct {
	Products []domain.Candidate `yaml:"products"`
}

// LoadFixtureClient reads a YAML document with a top-level "products" list.
func LoadFixtureClient(name, path string) (*FixtureClient, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var file fixtureFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return NewFixtureClient(name, file.Products), nil
}

// NewFixtureClient serves the given candidates under the supplier name.
func NewFixtureClient(name string, items []domain.Candidate) *FixtureClient {
	copied := make([]domain.Candidate, len(items))
	for i, item := range items {
		if item.Source == "" {
			item.Source = name
		}
		if item.Currency == "" {
			item.Currency = "USD"
		}
		copied[i] = item
	}
	return &FixtureClient{name: name, items: copied}
}

// Name identifies the supplier inside the registry.
func (f *FixtureClient) Name() string {
	return f.name
}

// Search filters the fixture by category and price and returns the requested page.
func (f *FixtureClient) Search(ctx context.Context, q domain.SearchQuery) (domain.SearchPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.SearchPage{}, err
	}

	var matched []domain.Candidate
	for _, item := range f.items {
		if q.Category != "" && !strings.EqualFold(item.Category, q.Category) {
			continue
		}
		if q.MinPrice > 0 && item.Price < q.MinPrice {
			continue
		}
		if q.MaxPrice > 0 && item.Price > q.MaxPrice {
			continue
		}
		matched = append(matched, item)
	}

	page := domain.SearchPage{Total: len(matched)}
	size := q.PageSize
	if size <= 0 {
		size = len(matched)
	}
	start := (max(q.Page, 1) - 1) * size
	if start >= len(matched) {
		return page, nil
	}
	end := min(start+size, len(matched))
	page.Items = append([]domain.Candidate(nil), matched[start:end]...)
	return page, nil
}
