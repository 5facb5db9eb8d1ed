package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_StoreAndList(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	s, err := NewLocalStorage(root)
	require.NoError(t, err)

	url, err := s.Store(ctx, "screenshots/raycast_jp/b.png", []byte("b"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.Join(root, "screenshots", "raycast_jp", "b.png"), url)

	_, err = s.Store(ctx, "screenshots/raycast_jp/a.png", []byte("a"), "image/png")
	require.NoError(t, err)
	_, err = s.Store(ctx, "screenshots/other/c.png", []byte("c"), "image/png")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "screenshots", "raycast_jp", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), data)

	names, err := s.List(ctx, "screenshots/raycast_jp/")
	require.NoError(t, err)
	assert.Equal(t, []string{"screenshots/raycast_jp/a.png", "screenshots/raycast_jp/b.png"}, names)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLocalStorage_RejectsEscapingNames(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	tests := []string{"../outside.png", "screenshots/../../outside.png"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Store(context.Background(), name, []byte("x"), "image/png")
			assert.Error(t, err)
		})
	}
}

func TestLocalStorage_ListMissingRoot(t *testing.T) {
	s, err := NewLocalStorage(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)

	names, err := s.List(context.Background(), "screenshots/")
	require.NoError(t, err)
	assert.Empty(t, names)
}
