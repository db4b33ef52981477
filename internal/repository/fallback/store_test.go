package fallback

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookora/internal/domain"
	"bookora/internal/repository/github"
	"bookora/internal/repository/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAssetPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"src/assets/data/feed.json", "data/feed.json"},
		{"/src/assets/data/books/1.json", "data/books/1.json"},
		{"data/users/a_x_com.json", "data/users/a_x_com.json"},
		{"assets/data/books.json", "data/books.json"},
		{"src/assets/../assets/data/books.json", "data/books.json"},
		{"", "."},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, AssetPath(tt.in))
		})
	}
}

func TestUnconfiguredReadsBundledAssets(t *testing.T) {
	ctx := context.Background()
	s := New(github.NewClient(github.Config{}, testLogger()), testLogger())
	require.False(t, s.IsConfigured())

	doc, err := s.Read(ctx, "src/assets/data/books.json")
	require.NoError(t, err)
	assert.Contains(t, string(doc.Content), "The Lantern Keeper")
	assert.Len(t, doc.SHA, 40)

	_, err = s.Read(ctx, "src/assets/data/books/missing.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	entries, err := s.List(ctx, "src/assets/data/books")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestUnconfiguredRejectsWrites(t *testing.T) {
	ctx := context.Background()
	assets := fstest.MapFS{"data/feed.json": {Data: []byte("[]")}}
	s := NewWithAssets(nil, assets, testLogger())

	_, err := s.Write(ctx, "src/assets/data/feed.json", []string{}, nil, "init")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.ErrorIs(t, s.Remove(ctx, "src/assets/data/feed.json", "sha", "rm"), domain.ErrNotConfigured)
}

func TestConfiguredPassesThrough(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewStore()
	s := New(remote, testLogger())

	// the bundled feed is not visible once a real store is present
	_, err := s.Read(ctx, "src/assets/data/feed.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sha, err := s.Write(ctx, "src/assets/data/feed.json", []string{}, nil, "init")
	require.NoError(t, err)
	doc, err := remote.Read(ctx, "src/assets/data/feed.json")
	require.NoError(t, err)
	assert.Equal(t, sha, doc.SHA)
}
