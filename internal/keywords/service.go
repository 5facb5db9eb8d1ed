package keywords

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/intent-feedx/feedx/internal/models"
	"github.com/intent-feedx/feedx/internal/store"
	"github.com/sirupsen/logrus"
)

var whitespace = regexp.MustCompile(`\s+`)

// Slugify derives a keyword id: lower-cased, each whitespace run replaced by "-"
func Slugify(query string) string {
	return whitespace.ReplaceAllString(strings.ToLower(query), "-")
}

// Service implements the admin keyword operations
type Service struct {
	store   store.KeywordStore
	allowed func(models.SourceType) bool
}

// NewService creates a keyword service. allowed reports whether a source type
// can be searched; nil accepts every source type.
func NewService(keywordStore store.KeywordStore, allowed func(models.SourceType) bool) *Service {
	if allowed == nil {
		allowed = func(models.SourceType) bool { return true }
	}
	return &Service{store: keywordStore, allowed: allowed}
}

func (s *Service) List(ctx context.Context) ([]models.Keyword, error) {
	return s.store.ListKeywords(ctx)
}

func (s *Service) ListEnabled(ctx context.Context) ([]models.Keyword, error) {
	return s.store.ListEnabledKeywords(ctx)
}

// Create adds a new enabled keyword. Sources default to the social-post source.
func (s *Service) Create(ctx context.Context, query string, sources []models.SourceType) (*models.Keyword, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", models.ErrInvalid)
	}

	if len(sources) == 0 {
		sources = []models.SourceType{models.SourceTwitter}
	}
	if err := s.validateSources(sources); err != nil {
		return nil, err
	}

	kw := models.Keyword{
		ID:      Slugify(query),
		Query:   query,
		Enabled: true,
		Sources: sources,
	}
	if err := s.store.CreateKeyword(ctx, kw); err != nil {
		return nil, err
	}

	logrus.Infof("Created keyword %s (%q)", kw.ID, kw.Query)
	return s.store.GetKeyword(ctx, kw.ID)
}

// Update toggles enabled and/or replaces the source list
func (s *Service) Update(ctx context.Context, id string, update store.KeywordUpdate) (*models.Keyword, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", models.ErrInvalid)
	}
	if update.Sources != nil {
		if len(update.Sources) == 0 {
			return nil, fmt.Errorf("%w: at least one source is required", models.ErrInvalid)
		}
		if err := s.validateSources(update.Sources); err != nil {
			return nil, err
		}
	}

	return s.store.UpdateKeyword(ctx, id, update)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", models.ErrInvalid)
	}
	if err := s.store.DeleteKeyword(ctx, id); err != nil {
		return err
	}

	logrus.Infof("Deleted keyword %s", id)
	return nil
}

func (s *Service) validateSources(sources []models.SourceType) error {
	for _, src := range sources {
		if !s.allowed(src) {
			return fmt.Errorf("%w: %s", models.ErrUnknownSourceType, src)
		}
	}
	return nil
}
