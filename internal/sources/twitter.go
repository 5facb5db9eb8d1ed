package sources

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/intent-feedx/feedx/internal/models"
	"github.com/intent-feedx/feedx/internal/serp"
	"github.com/sirupsen/logrus"
)

const defaultOEmbedURL = "https://publish.twitter.com/oembed"

// twitterHosts are the registrable domains of the social-post platform
var twitterHosts = []string{"x.com", "twitter.com"}

// TwitterAdapter handles posts on X / Twitter, enriched through oEmbed
type TwitterAdapter struct {
	oembedURL string
	client    *resty.Client
}

var _ Adapter = (*TwitterAdapter)(nil)

type oembedResponse struct {
	HTML       string `json:"html"`
	AuthorName string `json:"author_name"`
}

// NewTwitterAdapter creates a twitter adapter using the public oEmbed endpoint
func NewTwitterAdapter() *TwitterAdapter {
	return &TwitterAdapter{
		oembedURL: defaultOEmbedURL,
		client:    resty.New().SetHeader("User-Agent", "IntentFeedBot/1.0"),
	}
}

// WithOEmbedURL overrides the oEmbed endpoint
func (t *TwitterAdapter) WithOEmbedURL(endpoint string) *TwitterAdapter {
	t.oembedURL = endpoint
	return t
}

func (t *TwitterAdapter) Type() models.SourceType {
	return models.SourceTwitter
}

// BuildSearchQuery returns the keyword untouched; search operators such as
// site: live in the keyword text itself.
func (t *TwitterAdapter) BuildSearchQuery(keyword string, _ time.Time) string {
	return keyword
}

func (t *TwitterAdapter) ExtractCandidates(resp *serp.Response) []models.Candidate {
	if resp == nil || resp.OrganicResults == nil {
		return []models.Candidate{}
	}

	candidates := make([]models.Candidate, 0, len(resp.OrganicResults))
	for _, result := range resp.OrganicResults {
		if !isTwitterLink(result.Link) {
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

func (t *TwitterAdapter) Enrich(ctx context.Context, candidate models.Candidate, keyword, searchDate string) models.Content {
	content := models.Content{
		URL:        candidate.URL,
		SourceType: models.SourceTwitter,
		Title:      candidate.Title,
		Snippet:    candidate.Snippet,
		Keyword:    keyword,
		SearchDate: searchDate,
	}

	oembed := t.fetchOEmbed(ctx, candidate.URL)
	if oembed == nil {
		content.SourceMetadata.Twitter = &models.TwitterMetadata{EmbedSuccess: false}
		return content
	}

	content.AuthorName = oembed.AuthorName
	content.SourceMetadata.Twitter = &models.TwitterMetadata{
		EmbedHTML:    oembed.HTML,
		EmbedSuccess: true,
	}
	return content
}

func (t *TwitterAdapter) fetchOEmbed(ctx context.Context, postURL string) *oembedResponse {
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"url":         postURL,
			"omit_script": "true",
		}).
		Get(t.oembedURL)
	if err != nil {
		logrus.Warnf("oEmbed error for %s: %v", postURL, err)
		return nil
	}

	if !resp.IsSuccess() {
		logrus.Warnf("oEmbed failed for %s: status %d", postURL, resp.StatusCode())
		return nil
	}

	var oembed oembedResponse
	if err := json.Unmarshal(resp.Body(), &oembed); err != nil {
		logrus.Warnf("oEmbed returned malformed body for %s: %v", postURL, err)
		return nil
	}
	if oembed.HTML == "" {
		logrus.Warnf("oEmbed returned no markup for %s", postURL)
		return nil
	}

	return &oembed
}

func isTwitterLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, h := range twitterHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
