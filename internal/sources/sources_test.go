package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/intent-feedx/feedx/internal/models"
	"github.com/intent-feedx/feedx/internal/serp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func organic(links ...string) *serp.Response {
	resp := &serp.Response{}
	for _, link := range links {
		resp.OrganicResults = append(resp.OrganicResults, serp.OrganicResult{
			Link:    link,
			Title:   "title " + link,
			Snippet: "snippet " + link,
		})
	}
	return resp
}

func candidateURLs(candidates []models.Candidate) []string {
	urls := make([]string, 0, len(candidates))
	for _, c := range candidates {
		urls = append(urls, c.URL)
	}
	return urls
}

func TestIsTwitterLink(t *testing.T) {
	tests := []struct {
		name     string
		link     string
		expected bool
	}{
		{"x.com status", "https://x.com/raycast_jp/status/1", true},
		{"twitter.com status", "https://twitter.com/raycast_jp/status/2", true},
		{"Mobile subdomain", "https://mobile.twitter.com/a/status/3", true},
		{"Upper case host", "https://X.COM/a/status/4", true},
		{"Lookalike domain", "https://notx.com/a", false},
		{"Domain in path", "https://example.com/x.com/a", false},
		{"Article", "https://zenn.dev/articles/raycast", false},
		{"Empty", "", false},
		{"Relative", "/x.com/a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isTwitterLink(tt.link))
		})
	}
}

func TestTwitterAdapter_ExtractCandidates(t *testing.T) {
	adapter := NewTwitterAdapter()

	resp := organic(
		"https://x.com/a/status/1",
		"https://zenn.dev/a",
		"https://twitter.com/b/status/2",
		"https://qiita.com/b",
	)

	candidates := adapter.ExtractCandidates(resp)
	assert.Equal(t, []string{"https://x.com/a/status/1", "https://twitter.com/b/status/2"}, candidateURLs(candidates))
	assert.Equal(t, "title https://x.com/a/status/1", candidates[0].Title)
	assert.Equal(t, "snippet https://x.com/a/status/1", candidates[0].Snippet)
}

func TestAdapters_ExtractCandidatesFromEmptyResponse(t *testing.T) {
	for _, adapter := range []Adapter{NewTwitterAdapter(), NewArticleAdapter(0)} {
		t.Run(string(adapter.Type()), func(t *testing.T) {
			assert.Empty(t, adapter.ExtractCandidates(nil))
			assert.Empty(t, adapter.ExtractCandidates(&serp.Response{}))
		})
	}
}

func TestArticleAdapter_ExtractCandidates(t *testing.T) {
	adapter := NewArticleAdapter(0)

	resp := organic(
		"https://x.com/a/status/1",
		"https://zenn.dev/a",
		"",
		"https://qiita.com/b",
	)

	assert.Equal(t, []string{"https://zenn.dev/a", "https://qiita.com/b"}, candidateURLs(adapter.ExtractCandidates(resp)))
}

func TestBuildSearchQuery_ReturnsKeyword(t *testing.T) {
	for _, adapter := range []Adapter{NewTwitterAdapter(), NewArticleAdapter(0)} {
		assert.Equal(t, "raycast site:x.com", adapter.BuildSearchQuery("raycast site:x.com", time.Now()))
	}
}

func TestTwitterAdapter_Enrich(t *testing.T) {
	var gotURL, gotOmit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.Query().Get("url")
		gotOmit = r.URL.Query().Get("omit_script")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"html":"<blockquote>post</blockquote>","author_name":"Raycast JP"}`))
	}))
	defer server.Close()

	adapter := NewTwitterAdapter().WithOEmbedURL(server.URL)
	candidate := models.Candidate{URL: "https://x.com/raycast_jp/status/1", Title: "t", Snippet: "s"}

	content := adapter.Enrich(context.Background(), candidate, "raycast", "2024-05-02")

	assert.Equal(t, candidate.URL, gotURL)
	assert.Equal(t, "true", gotOmit)
	assert.Equal(t, models.SourceTwitter, content.SourceType)
	assert.Equal(t, "t", content.Title)
	assert.Equal(t, "s", content.Snippet)
	assert.Equal(t, "Raycast JP", content.AuthorName)
	assert.Equal(t, "raycast", content.Keyword)
	assert.Equal(t, "2024-05-02", content.SearchDate)
	require.NotNil(t, content.SourceMetadata.Twitter)
	assert.True(t, content.SourceMetadata.Twitter.EmbedSuccess)
	assert.Equal(t, "<blockquote>post</blockquote>", content.SourceMetadata.Twitter.EmbedHTML)
	assert.Nil(t, content.SourceMetadata.Article)
}

func TestTwitterAdapter_EnrichFailureDegrades(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"Not found", http.StatusNotFound, `{"error":"gone"}`},
		{"Malformed body", http.StatusOK, `not json`},
		{"No markup", http.StatusOK, `{"author_name":"someone"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			adapter := NewTwitterAdapter().WithOEmbedURL(server.URL)
			content := adapter.Enrich(context.Background(), models.Candidate{URL: "https://x.com/a/status/9", Title: "t", Snippet: "s"}, "k", "2024-05-02")

			assert.Equal(t, "t", content.Title)
			assert.Equal(t, "s", content.Snippet)
			assert.Empty(t, content.AuthorName)
			require.NotNil(t, content.SourceMetadata.Twitter)
			assert.False(t, content.SourceMetadata.Twitter.EmbedSuccess)
			assert.Empty(t, content.SourceMetadata.Twitter.EmbedHTML)
			assert.NoError(t, content.Validate())
		})
	}
}

func TestArticleAdapter_Enrich(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head>
			<title>Raycast tips</title>
			<meta property="og:description" content="Ten tips">
			<meta property="og:image" content="/cover.png">
			<meta property="og:site_name" content="Zenn">
			<meta property="og:type" content="article">
			<meta property="article:author" content="taro">
		</head></html>`))
	}))
	defer server.Close()

	adapter := NewArticleAdapter(0)
	pageURL := server.URL + "/articles/1"
	content := adapter.Enrich(context.Background(), models.Candidate{URL: pageURL, Title: "serp title", Snippet: "serp snippet"}, "raycast", "2024-05-02")

	assert.Equal(t, articleUserAgent, gotUA)
	assert.Equal(t, models.SourceArticle, content.SourceType)
	assert.Equal(t, "Raycast tips", content.Title)
	assert.Equal(t, "Ten tips", content.Snippet)
	assert.Equal(t, "taro", content.AuthorName)
	assert.Equal(t, server.URL+"/cover.png", content.ThumbnailURL)
	require.NotNil(t, content.SourceMetadata.Article)
	assert.Equal(t, models.ArticleMetadata{
		SiteName:      "Zenn",
		Favicon:       server.URL + "/favicon.ico",
		OGType:        "article",
		EnrichSuccess: true,
	}, *content.SourceMetadata.Article)
}

func TestArticleAdapter_EnrichFailureDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	adapter := NewArticleAdapter(0)
	pageURL := server.URL + "/blocked"
	content := adapter.Enrich(context.Background(), models.Candidate{URL: pageURL, Title: "serp title", Snippet: "serp snippet"}, "raycast", "2024-05-02")

	assert.Equal(t, "serp title", content.Title)
	assert.Equal(t, "serp snippet", content.Snippet)
	assert.Empty(t, content.ThumbnailURL)
	require.NotNil(t, content.SourceMetadata.Article)
	assert.False(t, content.SourceMetadata.Article.EnrichSuccess)
	assert.Equal(t, server.URL+"/favicon.ico", content.SourceMetadata.Article.Favicon)
}

func TestRegistry(t *testing.T) {
	registry := DefaultRegistry()

	assert.Equal(t, []models.SourceType{models.SourceArticle, models.SourceTwitter}, registry.Types())
	assert.True(t, registry.Has(models.SourceTwitter))
	assert.False(t, registry.Has("youtube"))

	adapter, err := registry.Resolve(models.SourceArticle)
	require.NoError(t, err)
	assert.Equal(t, models.SourceArticle, adapter.Type())

	_, err = registry.Resolve("youtube")
	assert.ErrorIs(t, err, models.ErrUnknownSourceType)
}
