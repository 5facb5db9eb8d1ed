package sources

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/intent-feedx/feedx/internal/models"
	"github.com/intent-feedx/feedx/internal/serp"
)

// Adapter knows how to search for, recognize and enrich content from one source
type Adapter interface {
	Type() models.SourceType
	BuildSearchQuery(keyword string, afterDate time.Time) string
	ExtractCandidates(resp *serp.Response) []models.Candidate
	// Enrich never fails: on any fetch problem it returns the candidate's own
	// title and snippet with metadata marking enrichment as unsuccessful.
	Enrich(ctx context.Context, candidate models.Candidate, keyword, searchDate string) models.Content
}

// Registry maps source types to their adapters
type Registry struct {
	adapters map[models.SourceType]Adapter
}

// NewRegistry builds a registry holding the given adapters
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[models.SourceType]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// DefaultRegistry registers the twitter and article adapters with default clients
func DefaultRegistry() *Registry {
	return NewRegistry(NewTwitterAdapter(), NewArticleAdapter(DefaultArticleFetchTimeout))
}

// Register adds or replaces the adapter for its source type
func (r *Registry) Register(a Adapter) {
	if r.adapters == nil {
		r.adapters = make(map[models.SourceType]Adapter)
	}
	r.adapters[a.Type()] = a
}

// Resolve returns the adapter registered for t
func (r *Registry) Resolve(t models.SourceType) (Adapter, error) {
	if a, ok := r.adapters[t]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %s", models.ErrUnknownSourceType, t)
}

// Has reports whether an adapter is registered for t
func (r *Registry) Has(t models.SourceType) bool {
	_, ok := r.adapters[t]
	return ok
}

// Types lists registered source types in a stable order
func (r *Registry) Types() []models.SourceType {
	types := make([]models.SourceType, 0, len(r.adapters))
	for t := range r.adapters {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
