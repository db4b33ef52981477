package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookora/internal/catalog"
	"bookora/internal/domain/services"
	"bookora/internal/jobs"
	"bookora/internal/repository/memory"
)

func TestExpireSessionsJob(t *testing.T) {
	ctx := context.Background()
	registry, err := catalog.NewRegistry()
	require.NoError(t, err)

	svc := SetupServices(Dependencies{
		Store:         memory.NewStore(),
		DataPrefix:    "src/assets/data/",
		Catalog:       registry,
		Tokens:        fakeIssuer{},
		AutosaveDelay: time.Hour,
	}, testLogger())

	_, err = svc.Users.Register(ctx, &services.RegisterRequest{Email: "w@x.com", Password: "secret1"})
	require.NoError(t, err)
	book, err := svc.Books.Add(ctx, "w@x.com", &services.CreateBookRequest{Title: "Idle", Genre: "Fantasy", Pages: twoPages()})
	require.NoError(t, err)

	edit, err := svc.Editor.Open(ctx, "w@x.com", book.ID)
	require.NoError(t, err)
	_, err = svc.Editor.AddPage(edit.ID, "w@x.com")
	require.NoError(t, err)
	_, err = svc.Reader.Open(ctx, book.ID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	runner := jobs.NewRunner(nil, time.Second, testLogger())
	ran := runner.RunOnce(jobs.FuncJob{
		JobName: "expire-sessions",
		Spec:    "@every 5m",
		Fn: func(ctx context.Context) error {
			return svc.ExpireSessions(ctx, time.Millisecond)
		},
	})
	require.True(t, ran)

	assert.Zero(t, svc.Editor.SessionCount())
	assert.Zero(t, svc.Reader.SessionCount())

	saved, err := svc.Books.FetchDetails(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.PageCount, "editor edits flushed before the session is dropped")
}
