package process

import (
	"fmt"
	"sort"

	"github.com/PDOK/gokoala-ogc/ogcerr"
)

// Registry maps process id to implementation. It is populated once at
// startup and never mutated afterward (spec.md §9, "Processor plugin
// registry: register at startup by moving Processor values into an
// immutable map keyed by id. Do not use global mutable singletons; pass the
// registry through the handler state"), grounded on the same pattern
// jobrunner-ortus's application.Registry uses for its sync-service handlers.
type Registry struct {
	byID map[string]Processor
}

// NewRegistry builds an immutable registry from the given processors,
// rejecting duplicate ids.
func NewRegistry(processors ...Processor) (*Registry, error) {
	byID := make(map[string]Processor, len(processors))
	for _, p := range processors {
		if _, exists := byID[p.ID()]; exists {
			return nil, fmt.Errorf("process: duplicate processor id %q", p.ID())
		}
		byID[p.ID()] = p
	}
	return &Registry{byID: byID}, nil
}

// Lookup returns the Processor for id, or a NotFound error.
func (r *Registry) Lookup(id string) (Processor, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, ogcerr.Newf(ogcerr.NotFound, "process %q does not exist", id)
	}
	return p, nil
}

// List returns every registered processor id, sorted for a stable listing
// response.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
