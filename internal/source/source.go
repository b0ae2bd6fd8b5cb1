// Package source holds one adapter per external event-listing site. Adapters
// fetch a search results page and extract raw listings; they do no semantic
// parsing beyond pulling text out of the markup.
package source

import (
	"context"

	"github.com/wandero/activity-ingest-service/internal/domain"
)

// Adapter scrapes one external listing site.
type Adapter interface {
	// Name is the stable identifier used in requests and metrics.
	Name() string

	// Scrape fetches the site's search results for the location and extracts
	// raw listings. An error means the whole page was unusable; individual
	// broken cards are skipped without failing the page.
	Scrape(ctx context.Context, location, category string) ([]domain.RawActivity, error)
}

// Registry maps adapter names to adapters, preserving registration order.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

// NewRegistry creates a Registry over the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if _, exists := r.adapters[a.Name()]; exists {
			continue
		}
		r.adapters[a.Name()] = a
		r.order = append(r.order, a.Name())
	}
	return r
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns all registered adapter names in registration order. This is
// the default source set for requests that do not specify one.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
