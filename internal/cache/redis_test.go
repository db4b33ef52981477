package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookora/internal/domain/models"
)

func TestNoopBookCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	var c BookCache = NoopBookCache{}

	require.NoError(t, c.SetBook(ctx, &models.Book{ID: "1"}))
	got, err := c.GetBook(ctx, "1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisBookCache(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	c, err := NewRedisBookCache(ctx, url, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	book := &models.Book{ID: "cache-test", Title: "Cached", Pages: []models.Page{{ID: "p1", PageNumber: 1}}}
	require.NoError(t, c.SetBook(ctx, book))

	got, err := c.GetBook(ctx, "cache-test")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Cached", got.Title)
	assert.Len(t, got.Pages, 1)

	require.NoError(t, c.DeleteBook(ctx, "cache-test"))
	got, err = c.GetBook(ctx, "cache-test")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
