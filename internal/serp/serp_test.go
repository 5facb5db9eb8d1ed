package serp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/intent-feedx/feedx/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient("")

	var cfgErr *models.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "SERP_API_KEY", cfgErr.Setting)
}

func TestClient_Search(t *testing.T) {
	var query map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"search_metadata": {"total_results": 1234},
			"organic_results": [
				{"position": 1, "link": "https://x.com/a/status/1", "title": "A", "snippet": "first"},
				{"position": 2, "link": "https://zenn.dev/b", "title": "B"}
			]
		}`))
	}))
	defer server.Close()

	client, err := NewClient("key", WithBaseURL(server.URL))
	require.NoError(t, err)

	resp, err := client.Search(context.Background(), "raycast site:x.com", 20)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"api_key": "key",
		"engine":  "google",
		"q":       "raycast site:x.com",
		"num":     "20",
	}, query)
	assert.Equal(t, 1234, resp.Total())
	require.Len(t, resp.OrganicResults, 2)
	assert.Equal(t, OrganicResult{Link: "https://x.com/a/status/1", Title: "A", Snippet: "first"}, resp.OrganicResults[0])
	assert.Empty(t, resp.OrganicResults[1].Snippet)
}

func TestClient_SearchFailures(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           string
		expectedStatus int
	}{
		{"Unauthorized", http.StatusUnauthorized, `{"error":"Invalid API key"}`, http.StatusUnauthorized},
		{"Rate limited", http.StatusTooManyRequests, `{"error":"limit"}`, http.StatusTooManyRequests},
		{"Malformed body", http.StatusOK, `<html>`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient("key", WithBaseURL(server.URL))
			require.NoError(t, err)

			_, err = client.Search(context.Background(), "raycast", 20)
			var providerErr *models.ProviderError
			require.True(t, errors.As(err, &providerErr))
			assert.Equal(t, "serpapi", providerErr.Provider)
			assert.Equal(t, tt.expectedStatus, providerErr.StatusCode)
		})
	}
}

func TestResponse_TotalWithoutMetadata(t *testing.T) {
	var nilResp *Response
	assert.Equal(t, 0, nilResp.Total())
	assert.Equal(t, 0, (&Response{}).Total())
	assert.Equal(t, 0, (&Response{SearchMetadata: &SearchMetadata{}}).Total())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
