package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SourceType identifies where a content item came from
type SourceType string

const (
	// SourceTwitter is the social-post source (x.com / twitter.com)
	SourceTwitter SourceType = "twitter"
	// SourceArticle is any non-social web page
	SourceArticle SourceType = "article"
)

// Known reports whether t is one of the supported source types
func (t SourceType) Known() bool {
	return t == SourceTwitter || t == SourceArticle
}

// DateLayout is the calendar-date format used for search dates
const DateLayout = "2006-01-02"

// Keyword is a search keyword managed from the admin API
type Keyword struct {
	ID        string       `json:"id"` // slug derived from Query
	Query     string       `json:"query"`
	Enabled   bool         `json:"enabled"`
	Sources   []SourceType `json:"sources"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Candidate is a search result before source-specific enrichment
type Candidate struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// TwitterMetadata holds oEmbed output for social posts
type TwitterMetadata struct {
	EmbedHTML    string `json:"embedHtml,omitempty"`
	EmbedSuccess bool   `json:"embedSuccess"`
}

// ArticleMetadata holds page metadata for articles
type ArticleMetadata struct {
	SiteName      string `json:"siteName,omitempty"`
	Favicon       string `json:"favicon,omitempty"`
	OGType        string `json:"ogType,omitempty"`
	EnrichSuccess bool   `json:"enrichSuccess"`
}

// SourceMetadata carries exactly one source-specific metadata branch
type SourceMetadata struct {
	Twitter *TwitterMetadata
	Article *ArticleMetadata
}

// MarshalJSON flattens the populated branch so the stored shape matches the source type
func (m SourceMetadata) MarshalJSON() ([]byte, error) {
	switch {
	case m.Twitter != nil:
		return json.Marshal(m.Twitter)
	case m.Article != nil:
		return json.Marshal(m.Article)
	default:
		return []byte("null"), nil
	}
}

// Decode fills the branch that belongs to sourceType from raw JSON
func (m *SourceMetadata) Decode(sourceType SourceType, raw []byte) error {
	*m = SourceMetadata{}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	switch sourceType {
	case SourceTwitter:
		m.Twitter = &TwitterMetadata{}
		return json.Unmarshal(raw, m.Twitter)
	case SourceArticle:
		m.Article = &ArticleMetadata{}
		return json.Unmarshal(raw, m.Article)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSourceType, sourceType)
	}
}

// Content is the unified record persisted for every source item
type Content struct {
	ID             int64          `json:"id,omitempty"`
	URL            string         `json:"url"`
	SourceType     SourceType     `json:"sourceType"`
	Title          string         `json:"title"`
	Snippet        string         `json:"snippet"`
	AuthorName     string         `json:"authorName,omitempty"`
	PublishedAt    string         `json:"publishedAt,omitempty"`
	ThumbnailURL   string         `json:"thumbnailUrl,omitempty"`
	SourceMetadata SourceMetadata `json:"sourceMetadata"`
	Keyword        string         `json:"keyword"`
	SearchDate     string         `json:"searchDate"`
	CreatedAt      time.Time      `json:"createdAt"`
	DeletedAt      *time.Time     `json:"deletedAt,omitempty"`
}

// Validate checks the invariants a content row must satisfy before insert
func (c *Content) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("content url is required")
	}

	switch c.SourceType {
	case SourceTwitter:
		if c.SourceMetadata.Article != nil {
			return fmt.Errorf("content %s: article metadata on %s content", c.URL, c.SourceType)
		}
		if c.SourceMetadata.Twitter == nil {
			return fmt.Errorf("content %s: missing twitter metadata", c.URL)
		}
	case SourceArticle:
		if c.SourceMetadata.Twitter != nil {
			return fmt.Errorf("content %s: twitter metadata on %s content", c.URL, c.SourceType)
		}
		if c.SourceMetadata.Article == nil {
			return fmt.Errorf("content %s: missing article metadata", c.URL)
		}
	default:
		return fmt.Errorf("content %s: %w: %s", c.URL, ErrUnknownSourceType, c.SourceType)
	}

	return nil
}

// SearchRun is the outcome of one keyword/source search
type SearchRun struct {
	SearchQuery    string     `json:"searchQuery"`
	SearchDate     string     `json:"searchDate"`
	Keyword        string     `json:"keyword"`
	SourceType     SourceType `json:"sourceType"`
	TotalResults   int        `json:"totalResults"`
	RetrievedCount int        `json:"retrievedCount"`
	SkippedCount   int        `json:"skippedCount"`
	GeneratedAt    time.Time  `json:"generatedAt"`
	Contents       []Content  `json:"contents"`
}

// PairResult records what happened for one keyword/source pair of a daily run
type PairResult struct {
	Keyword    string     `json:"keyword"`
	SourceType SourceType `json:"sourceType"`
	Retrieved  int        `json:"retrieved"`
	Saved      int        `json:"saved"`
	Error      string     `json:"error,omitempty"`
}

// DailyReport summarizes one daily ingestion run
type DailyReport struct {
	RunID       string       `json:"runId"`
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  time.Time    `json:"finishedAt"`
	Results     []PairResult `json:"results"`
	TotalSaved  int          `json:"totalSaved"`
	FailedCount int          `json:"failed"`
}

// URLSet is the set of content URLs already known to a run
type URLSet map[string]struct{}

// NewURLSet builds a set from the given urls
func NewURLSet(urls ...string) URLSet {
	set := make(URLSet, len(urls))
	for _, u := range urls {
		set[u] = struct{}{}
	}
	return set
}

// Has reports whether url is in the set. A nil set contains nothing.
func (s URLSet) Has(url string) bool {
	_, ok := s[url]
	return ok
}

// Add inserts url into the set
func (s URLSet) Add(url string) {
	s[url] = struct{}{}
}
