package sources

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/intent-feedx/feedx/internal/models"
	"github.com/intent-feedx/feedx/internal/serp"
	"github.com/sirupsen/logrus"
)

// DefaultArticleFetchTimeout bounds a single article page fetch
const DefaultArticleFetchTimeout = 10 * time.Second

const articleUserAgent = "Mozilla/5.0 (compatible; IntentFeedBot/1.0)"

// ArticleAdapter handles generic web pages, enriched from their Open Graph metadata
type ArticleAdapter struct {
	client *resty.Client
}

var _ Adapter = (*ArticleAdapter)(nil)

// NewArticleAdapter creates an article adapter whose page fetches are bounded by timeout
func NewArticleAdapter(timeout time.Duration) *ArticleAdapter {
	if timeout <= 0 {
		timeout = DefaultArticleFetchTimeout
	}

	return &ArticleAdapter{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", articleUserAgent).
			SetHeader("Accept", "text/html"),
	}
}

func (a *ArticleAdapter) Type() models.SourceType {
	return models.SourceArticle
}

func (a *ArticleAdapter) BuildSearchQuery(keyword string, _ time.Time) string {
	return keyword
}

// ExtractCandidates keeps every result that is not a social post
func (a *ArticleAdapter) ExtractCandidates(resp *serp.Response) []models.Candidate {
	if resp == nil || resp.OrganicResults == nil {
		return []models.Candidate{}
	}

	candidates := make([]models.Candidate, 0, len(resp.OrganicResults))
	for _, result := range resp.OrganicResults {
		if result.Link == "" || isTwitterLink(result.Link) {
			continue
		}
		candidates = append(candidates, models.Candidate{
			URL:     result.Link,
			Title:   result.Title,
			Snippet: result.Snippet,
		})
	}

	return candidates
}

func (a *ArticleAdapter) Enrich(ctx context.Context, candidate models.Candidate, keyword, searchDate string) models.Content {
	content := models.Content{
		URL:        candidate.URL,
		SourceType: models.SourceArticle,
		Title:      candidate.Title,
		Snippet:    candidate.Snippet,
		Keyword:    keyword,
		SearchDate: searchDate,
	}

	ogp, err := a.fetchOGP(ctx, candidate.URL)
	if err != nil {
		logrus.Warnf("OGP fetch failed for %s: %v", candidate.URL, err)
		content.SourceMetadata.Article = &models.ArticleMetadata{
			Favicon:       defaultFavicon(candidate.URL),
			EnrichSuccess: false,
		}
		return content
	}

	if ogp.Title != "" {
		content.Title = ogp.Title
	}
	if ogp.Description != "" {
		content.Snippet = ogp.Description
	}
	content.AuthorName = ogp.Author
	content.PublishedAt = ogp.PublishedTime
	content.ThumbnailURL = ogp.Image
	content.SourceMetadata.Article = &models.ArticleMetadata{
		SiteName:      ogp.SiteName,
		Favicon:       ogp.Favicon,
		OGType:        ogp.Type,
		EnrichSuccess: true,
	}

	return content
}

func (a *ArticleAdapter) fetchOGP(ctx context.Context, pageURL string) (*OGPData, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("status %d", resp.StatusCode())
	}

	return ParseOGP(bytes.NewReader(resp.Body()), pageURL)
}
