package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceMetadata_MarshalFlattensBranch(t *testing.T) {
	tests := []struct {
		name     string
		metadata SourceMetadata
		expected string
	}{
		{"Twitter", SourceMetadata{Twitter: &TwitterMetadata{EmbedSuccess: false}}, `{"embedSuccess":false}`},
		{"Article", SourceMetadata{Article: &ArticleMetadata{SiteName: "Zenn", EnrichSuccess: true}}, `{"siteName":"Zenn","enrichSuccess":true}`},
		{"Empty", SourceMetadata{}, `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.metadata)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestSourceMetadata_Decode(t *testing.T) {
	var m SourceMetadata

	require.NoError(t, m.Decode(SourceArticle, []byte(`{"siteName":"Zenn","favicon":"https://zenn.dev/favicon.ico","enrichSuccess":true}`)))
	require.NotNil(t, m.Article)
	assert.Nil(t, m.Twitter)
	assert.Equal(t, "https://zenn.dev/favicon.ico", m.Article.Favicon)

	require.NoError(t, m.Decode(SourceTwitter, []byte(`null`)))
	assert.Nil(t, m.Article)
	assert.Nil(t, m.Twitter)

	err := m.Decode("youtube", []byte(`{}`))
	assert.True(t, errors.Is(err, ErrUnknownSourceType))
}

func TestContent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		content Content
		valid   bool
	}{
		{"Twitter", Content{URL: "u", SourceType: SourceTwitter, SourceMetadata: SourceMetadata{Twitter: &TwitterMetadata{}}}, true},
		{"Article", Content{URL: "u", SourceType: SourceArticle, SourceMetadata: SourceMetadata{Article: &ArticleMetadata{}}}, true},
		{"Missing URL", Content{SourceType: SourceTwitter}, false},
		{"Article metadata on twitter", Content{URL: "u", SourceType: SourceTwitter, SourceMetadata: SourceMetadata{Article: &ArticleMetadata{}}}, false},
		{"Twitter metadata on article", Content{URL: "u", SourceType: SourceArticle, SourceMetadata: SourceMetadata{Twitter: &TwitterMetadata{}}}, false},
		{"Unknown source", Content{URL: "u", SourceType: "youtube"}, false},
		{"Twitter without metadata", Content{URL: "u", SourceType: SourceTwitter}, false},
		{"Article without metadata", Content{URL: "u", SourceType: SourceArticle}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.content.Validate()
			assert.Equal(t, tt.valid, err == nil, "%v", err)
		})
	}
}

func TestSourceType_Known(t *testing.T) {
	assert.True(t, SourceTwitter.Known())
	assert.True(t, SourceArticle.Known())
	assert.False(t, SourceType("youtube").Known())
	assert.False(t, SourceType("").Known())
}

func TestTimestampsAlwaysSerialized(t *testing.T) {
	data, err := json.Marshal(Keyword{ID: "raycast", Query: "raycast"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"createdAt":"0001-01-01T00:00:00Z"`)

	data, err = json.Marshal(Content{URL: "u", SourceType: SourceTwitter})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"createdAt"`)
	assert.NotContains(t, string(data), `"deletedAt"`)
}

func TestURLSet(t *testing.T) {
	var empty URLSet
	assert.False(t, empty.Has("a"))

	set := NewURLSet("a", "b")
	set.Add("c")
	assert.True(t, set.Has("a"))
	assert.True(t, set.Has("c"))
	assert.False(t, set.Has("d"))
	assert.Len(t, set, 3)
}

func TestErrors(t *testing.T) {
	assert.Equal(t, "SERP_API_KEY is not set", (&ConfigurationError{Setting: "SERP_API_KEY"}).Error())

	wrapped := &ProviderError{Provider: "serpapi", Err: ErrInvalid}
	assert.True(t, errors.Is(wrapped, ErrInvalid))
	assert.Equal(t, "serpapi returned status 429: slow", (&ProviderError{Provider: "serpapi", StatusCode: 429, Body: "slow"}).Error())
}
