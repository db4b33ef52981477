package docsync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookora/internal/domain"
)

func TestSagaStopsAtFirstFailure(t *testing.T) {
	var ran []string
	step := func(name string, err error) func(context.Context) error {
		return func(context.Context) error {
			ran = append(ran, name)
			return err
		}
	}
	boom := errors.New("boom")

	err := NewSaga("add book", testLogger()).
		Step("book document", step("book document", nil)).
		Step("books index", step("books index", boom)).
		Step("owner created_books", step("owner created_books", nil)).
		Run(context.Background())

	var serr *domain.SyncError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "books index", serr.Step)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"book document", "books index"}, ran)
}

func TestSagaSuccess(t *testing.T) {
	count := 0
	inc := func(context.Context) error { count++; return nil }

	err := NewSaga("s", testLogger()).Step("a", inc).Step("b", inc).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
