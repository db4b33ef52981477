package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookora/internal/domain"
)

func TestNewTableNames(t *testing.T) {
	assert.Equal(t, "dev_documents", NewTableNames("dev_").Documents)
	assert.Equal(t, "documents", NewTableNames("").Documents)
}

func TestNewSHAIsFreshForSameContent(t *testing.T) {
	a := newSHA([]byte(`{}`))
	b := newSHA([]byte(`{}`))
	assert.Len(t, a, 40)
	assert.NotEqual(t, a, b)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, domain.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, domain.ErrConflict},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, domain.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translate("read", "books.json", tt.err), tt.want)
		})
	}

	other := translate("update", "books.json", errors.New("connection reset"))
	assert.NotErrorIs(t, other, domain.ErrConflict)
	assert.Contains(t, other.Error(), "update document books.json")
}

// TestDocumentStoreIntegration runs against TEST_DATABASE_URL when set
func TestDocumentStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := CreateConnectionPool(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	store := NewDocumentStore(&RepositoryConfig{
		Pool:   pool,
		Tables: NewTableNames("test_"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, store.DropSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx))
	defer store.DropSchema(ctx)

	_, err = store.Read(ctx, "data/feed.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	first, err := store.Write(ctx, "data/feed.json", []string{}, nil, "init")
	require.NoError(t, err)
	_, err = store.Write(ctx, "data/feed.json", []string{}, nil, "init again")
	assert.ErrorIs(t, err, domain.ErrConflict)

	second, err := store.Write(ctx, "data/feed.json", []string{"x"}, &first, "update")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = store.Write(ctx, "data/feed.json", []string{"y"}, &first, "stale")
	assert.ErrorIs(t, err, domain.ErrConflict)

	entries, err := store.List(ctx, "data")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "feed.json", entries[0].Name)

	assert.ErrorIs(t, store.Remove(ctx, "data/feed.json", first, "rm"), domain.ErrConflict)
	require.NoError(t, store.Remove(ctx, "data/feed.json", second, "rm"))
	assert.ErrorIs(t, store.Remove(ctx, "data/feed.json", second, "rm"), domain.ErrNotFound)
}
