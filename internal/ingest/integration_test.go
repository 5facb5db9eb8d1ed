package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/intent-feedx/feedx/internal/models"
	"github.com/intent-feedx/feedx/internal/search"
	"github.com/intent-feedx/feedx/internal/serp"
	"github.com/intent-feedx/feedx/internal/sources"
	"github.com/intent-feedx/feedx/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider struct {
	resp *serp.Response
}

func (p staticProvider) Search(context.Context, string, int) (*serp.Response, error) {
	return p.resp, nil
}

// Two consecutive daily runs over the same provider response: the second
// run finds nothing new and inserts nothing.
func TestDailySearch_SecondRunSkipsKnownPosts(t *testing.T) {
	ctx := context.Background()

	oembed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"html":"<blockquote>hi</blockquote>","author_name":"Raycast JP"}`))
	}))
	defer oembed.Close()

	db, err := store.Open(ctx, store.SQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.CreateKeyword(ctx, models.Keyword{
		ID: "raycast", Query: "raycast", Enabled: true,
		Sources: []models.SourceType{models.SourceTwitter},
	}))

	provider := staticProvider{resp: &serp.Response{OrganicResults: []serp.OrganicResult{
		{Link: "https://x.com/raycast_jp/status/1", Title: "Raycast", Snippet: "hello"},
		{Link: "https://zenn.dev/raycast", Title: "Not a post"},
	}}}
	registry := sources.NewRegistry(sources.NewTwitterAdapter().WithOEmbedURL(oembed.URL))
	orchestrator := search.NewOrchestrator(provider, registry)

	service := NewService(db, db, orchestrator, nil)

	report, err := service.RunDailySearch(ctx)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, 1, report.Results[0].Retrieved)
	assert.Equal(t, 1, report.TotalSaved)

	report, err = service.RunDailySearch(ctx)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, 0, report.Results[0].Retrieved)
	assert.Equal(t, 0, report.TotalSaved)
	assert.Equal(t, 0, report.FailedCount)

	run, err := orchestrator.SearchContent(ctx, "raycast", models.SourceTwitter, mustURLs(t, db))
	require.NoError(t, err)
	assert.Equal(t, 1, run.SkippedCount)
	assert.Equal(t, 0, run.RetrievedCount)

	page, err := db.List(ctx, store.ContentFilter{})
	require.NoError(t, err)
	require.Len(t, page.Contents, 1)
	saved := page.Contents[0]
	assert.Equal(t, "Raycast JP", saved.AuthorName)
	require.NotNil(t, saved.SourceMetadata.Twitter)
	assert.True(t, saved.SourceMetadata.Twitter.EmbedSuccess)
	assert.Equal(t, "<blockquote>hi</blockquote>", saved.SourceMetadata.Twitter.EmbedHTML)
}

func mustURLs(t *testing.T, db *store.SQLStore) models.URLSet {
	t.Helper()
	urls, err := db.LoadExistingURLs(context.Background())
	require.NoError(t, err)
	return urls
}
