package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/intent-feedx/feedx/internal/models"
	"github.com/intent-feedx/feedx/internal/serp"
	"github.com/intent-feedx/feedx/internal/sources"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultResultCount is the page size requested from the search provider
	DefaultResultCount = 20
	// DefaultEnrichConcurrency caps parallel enrichment fetches per search
	DefaultEnrichConcurrency = 8
)

// Searcher runs one keyword/source search
type Searcher interface {
	SearchContent(ctx context.Context, keyword string, sourceType models.SourceType, existingURLs models.URLSet) (*models.SearchRun, error)
}

// Orchestrator drives a search through the adapter registered for a source type
type Orchestrator struct {
	provider          serp.Provider
	registry          *sources.Registry
	resultCount       int
	enrichConcurrency int
	location          *time.Location
	now               func() time.Time
}

var _ Searcher = (*Orchestrator)(nil)

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithResultCount sets how many results are requested from the provider
func WithResultCount(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.resultCount = n
		}
	}
}

// WithEnrichConcurrency caps the number of enrichment fetches in flight
func WithEnrichConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.enrichConcurrency = n
		}
	}
}

// WithLocation sets the time zone that defines calendar dates
func WithLocation(loc *time.Location) Option {
	return func(o *Orchestrator) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithClock replaces the reference clock
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates an orchestrator. provider may be nil when no API key
// is configured; searches then fail with a ConfigurationError.
func NewOrchestrator(provider serp.Provider, registry *sources.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:          provider,
		registry:          registry,
		resultCount:       DefaultResultCount,
		enrichConcurrency: DefaultEnrichConcurrency,
		location:          time.UTC,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SearchContent searches keyword on the source, drops URLs already in
// existingURLs and enriches the rest. existingURLs is only read.
func (o *Orchestrator) SearchContent(ctx context.Context, keyword string, sourceType models.SourceType, existingURLs models.URLSet) (*models.SearchRun, error) {
	adapter, err := o.registry.Resolve(sourceType)
	if err != nil {
		return nil, err
	}

	if o.provider == nil {
		return nil, &models.ConfigurationError{Setting: "SERP_API_KEY"}
	}

	today := o.today()
	afterDate := today.AddDate(0, 0, -1)
	searchDate := today.Format(models.DateLayout)

	query := adapter.BuildSearchQuery(keyword, afterDate)
	log := logrus.WithFields(logrus.Fields{
		"keyword":     keyword,
		"source_type": sourceType,
		"query":       query,
	})

	resp, err := o.provider.Search(ctx, query, o.resultCount)
	if err != nil {
		return nil, fmt.Errorf("search %q (%s): %w", keyword, sourceType, err)
	}

	candidates := adapter.ExtractCandidates(resp)
	fresh, skipped := partition(candidates, existingURLs)
	log.Infof("Extracted %d candidates: %d new, %d already known", len(candidates), len(fresh), skipped)

	contents := o.enrichAll(ctx, adapter, fresh, keyword, searchDate)

	embedded := 0
	for _, c := range contents {
		if enriched(c) {
			embedded++
		}
	}
	log.Infof("Enrichment complete: %d/%d succeeded", embedded, len(contents))

	return &models.SearchRun{
		SearchQuery:    query,
		SearchDate:     searchDate,
		Keyword:        keyword,
		SourceType:     sourceType,
		TotalResults:   resp.Total(),
		RetrievedCount: len(contents),
		SkippedCount:   skipped,
		GeneratedAt:    o.now().UTC(),
		Contents:       contents,
	}, nil
}

func (o *Orchestrator) today() time.Time {
	now := o.now().In(o.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, o.location)
}

// enrichAll fans enrichment out across candidates. Results are appended in completion order.
func (o *Orchestrator) enrichAll(ctx context.Context, adapter sources.Adapter, candidates []models.Candidate, keyword, searchDate string) []models.Content {
	contents := make([]models.Content, 0, len(candidates))
	if len(candidates) == 0 {
		return contents
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.enrichConcurrency)

	for _, candidate := range candidates {
		g.Go(func() error {
			content := adapter.Enrich(gCtx, candidate, keyword, searchDate)
			mu.Lock()
			contents = append(contents, content)
			mu.Unlock()
			return nil
		})
	}

	// Enrich never returns an error, so Wait only joins.
	_ = g.Wait()
	return contents
}

// partition splits candidates into those with unseen URLs and a count of the
// rest. A URL repeated inside one response counts as new once, then skipped.
func partition(candidates []models.Candidate, existing models.URLSet) ([]models.Candidate, int) {
	fresh := make([]models.Candidate, 0, len(candidates))
	seen := make(models.URLSet, len(candidates))
	skipped := 0

	for _, c := range candidates {
		if existing.Has(c.URL) || seen.Has(c.URL) {
			skipped++
			continue
		}
		seen.Add(c.URL)
		fresh = append(fresh, c)
	}

	return fresh, skipped
}

func enriched(c models.Content) bool {
	switch {
	case c.SourceMetadata.Twitter != nil:
		return c.SourceMetadata.Twitter.EmbedSuccess
	case c.SourceMetadata.Article != nil:
		return c.SourceMetadata.Article.EnrichSuccess
	default:
		return false
	}
}
