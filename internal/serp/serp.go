package serp

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/intent-feedx/feedx/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	providerName   = "serpapi"
	defaultBaseURL = "https://serpapi.com/search"
	defaultEngine  = "google"
)

// Response is the subset of a SerpAPI search response the pipeline reads
type Response struct {
	OrganicResults []OrganicResult `json:"organic_results"`
	SearchMetadata *SearchMetadata `json:"search_metadata,omitempty"`
}

// OrganicResult is one ranked search hit
type OrganicResult struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchMetadata carries provider-reported totals
type SearchMetadata struct {
	TotalResults *int `json:"total_results,omitempty"`
}

// Total returns the provider-reported hit count, or 0 when absent
func (r *Response) Total() int {
	if r == nil || r.SearchMetadata == nil || r.SearchMetadata.TotalResults == nil {
		return 0
	}
	return *r.SearchMetadata.TotalResults
}

// Provider runs a web search and returns the raw ranked results
type Provider interface {
	Search(ctx context.Context, query string, num int) (*Response, error)
}

// Client is a SerpAPI Provider
type Client struct {
	apiKey  string
	baseURL string
	engine  string
	client  *resty.Client
}

var _ Provider = (*Client)(nil)

// Option customizes a Client
type Option func(*Client)

// WithBaseURL points the client at a different endpoint
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the underlying resty client
func WithHTTPClient(client *resty.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a SerpAPI client. An empty apiKey is a configuration error.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, &models.ConfigurationError{Setting: "SERP_API_KEY"}
	}

	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		engine:  defaultEngine,
		client:  resty.New().SetHeader("User-Agent", "IntentFeedBot/1.0"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Search sends query to SerpAPI asking for at most num results. There is no retry.
func (c *Client) Search(ctx context.Context, query string, num int) (*Response, error) {
	if c.apiKey == "" {
		return nil, &models.ConfigurationError{Setting: "SERP_API_KEY"}
	}

	logrus.Debugf("SerpAPI request: q=%q num=%d", query, num)

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key": c.apiKey,
			"engine":  c.engine,
			"q":       query,
			"num":     strconv.Itoa(num),
		}).
		Get(c.baseURL)
	if err != nil {
		return nil, &models.ProviderError{Provider: providerName, Err: err}
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, &models.ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode(),
			Body:       truncate(string(resp.Body()), 512),
		}
	}

	var searchResp Response
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, &models.ProviderError{Provider: providerName, StatusCode: resp.StatusCode(), Err: err}
	}

	logrus.Debugf("SerpAPI returned %d organic results for %q", len(searchResp.OrganicResults), query)
	return &searchResp, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
