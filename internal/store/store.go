package store

import (
	"context"

	"github.com/intent-feedx/feedx/internal/models"
)

// PageSize is the number of contents returned per feed page
const PageSize = 50

// ContentStore is the persistence gateway for ingested content
type ContentStore interface {
	// InsertNew writes contents, skipping any URL already stored, and returns
	// how many rows were actually inserted.
	InsertNew(ctx context.Context, contents []models.Content) (int, error)
	LoadExistingURLs(ctx context.Context) (models.URLSet, error)
	SoftDelete(ctx context.Context, url string) error
	Restore(ctx context.Context, url string) error
	List(ctx context.Context, filter ContentFilter) (*ContentPage, error)
}

// KeywordStore persists admin-managed keywords
type KeywordStore interface {
	ListKeywords(ctx context.Context) ([]models.Keyword, error)
	ListEnabledKeywords(ctx context.Context) ([]models.Keyword, error)
	GetKeyword(ctx context.Context, id string) (*models.Keyword, error)
	CreateKeyword(ctx context.Context, kw models.Keyword) error
	UpdateKeyword(ctx context.Context, id string, update KeywordUpdate) (*models.Keyword, error)
	DeleteKeyword(ctx context.Context, id string) error
}

// ContentFilter selects a page of the feed
type ContentFilter struct {
	Page       int
	Deleted    bool              // list soft-deleted rows instead of live ones
	SourceType models.SourceType // empty means every source
}

// ContentPage is one page of the feed
type ContentPage struct {
	Contents   []models.Content `json:"contents"`
	HasMore    bool             `json:"hasMore"`
	TotalCount int              `json:"totalCount"`
}

// KeywordUpdate carries the mutable fields of a keyword; nil fields are left unchanged
type KeywordUpdate struct {
	Enabled *bool
	Sources []models.SourceType
}
