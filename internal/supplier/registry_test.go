package supplier

import (
	"context"
	"testing"

	"ProductCurator/internal/domain"
)

type stubClient struct{ name string }

func (s stubClient) Name() string { return s.name }

func (s stubClient) Search(context.Context, domain.SearchQuery) (domain.SearchPage, error) {
	return domain.SearchPage{}, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(stubClient{name: "beta"})
	reg.Register(stubClient{name: "alpha"})

	if _, err := reg.Resolve("alpha"); err != nil {
		t.Fatalf("Resolve alpha: %v", err)
	}
	if _, err := reg.Resolve("missing"); err == nil {
		t.Fatalf("expected error for unregistered supplier")
	}
	names := reg.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestRegistryZeroValueRegister(t *testing.T) {
	t.Parallel()

	var reg Registry
	reg.Register(stubClient{name: "x"})
	if _, err := reg.Resolve("x"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
}
