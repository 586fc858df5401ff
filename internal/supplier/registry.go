package supplier

import (
	"fmt"
	"sort"

	"ProductCurator/internal/ports"
)

// Target describes what to pull from one registered supplier.
type Target struct {
	Supplier   string
	Categories []string
	Country    string
	MinPrice   float64
	MaxPrice   float64
	PageSize   int
	MaxPages   int
}

// Registry keeps a mapping from supplier names to their clients.
type Registry struct {
	clients map[string]ports.SupplierClient
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: map[string]ports.SupplierClient{}}
}

// Register adds or replaces a client implementation.
func (r *Registry) Register(client ports.SupplierClient) {
	if r.clients == nil {
		r.clients = map[string]ports.SupplierClient{}
	}
	r.clients[client.Name()] = client
}

// Resolve returns a client by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.SupplierClient, error) {
	if client, ok := r.clients[name]; ok {
		return client, nil
	}
	return nil, fmt.Errorf("supplier %s is not registered", name)
}

// Names lists registered suppliers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
