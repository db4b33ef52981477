package github

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookora/internal/domain"
	"bookora/internal/repository/codec"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T) (*Client, *fakeContents) {
	t.Helper()
	fake, srv := newFakeContents(t)
	c := NewClient(Config{Token: "tok", Owner: "owner", Repo: "repo", APIURL: srv.URL}, testLogger())
	return c, fake
}

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"all present", Config{Token: "t", Owner: "o", Repo: "r"}, true},
		{"missing token", Config{Owner: "o", Repo: "r"}, false},
		{"missing owner", Config{Token: "t", Repo: "r"}, false},
		{"missing repo", Config{Token: "t", Owner: "o"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewClient(tt.cfg, testLogger()).IsConfigured())
		})
	}
}

func TestNotConfiguredRejectsEveryCall(t *testing.T) {
	ctx := context.Background()
	c := NewClient(Config{}, testLogger())

	_, err := c.Read(ctx, "feed.json")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	_, err = c.Write(ctx, "feed.json", []string{}, nil, "init")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.ErrorIs(t, c.Remove(ctx, "feed.json", "sha", "rm"), domain.ErrNotConfigured)
	_, err = c.List(ctx, "books")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestReadNotFoundIsIdempotent(t *testing.T) {
	c, _ := newTestClient(t)

	for i := 0; i < 2; i++ {
		doc, err := c.Read(context.Background(), "missing/file.json")
		assert.Nil(t, doc)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestWriteCreateThenConflictOnCreate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	sha, err := c.Write(ctx, "data/books.json", []string{"a"}, nil, "create index")
	require.NoError(t, err)
	assert.NotEmpty(t, sha)

	_, err = c.Write(ctx, "data/books.json", []string{"b"}, nil, "create again")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestVersionTokenDiscipline(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	first, err := c.Write(ctx, "feed.json", []string{"v1"}, nil, "v1")
	require.NoError(t, err)

	second, err := c.Write(ctx, "feed.json", []string{"v2"}, &first, "v2")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// first is now stale
	_, err = c.Write(ctx, "feed.json", []string{"v3"}, &first, "v3")
	assert.ErrorIs(t, err, domain.ErrConflict)

	doc, err := c.Read(ctx, "feed.json")
	require.NoError(t, err)
	assert.Equal(t, second, doc.SHA)
	assert.JSONEq(t, `["v2"]`, string(doc.Content))
}

func TestWritePrettyPrintsAndRoundTripsUnicode(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)

	value := map[string]string{"title": "Les Misérables 📖 日本語"}
	_, err := c.Write(ctx, "books/1.json", value, nil, "add book")
	require.NoError(t, err)

	assert.Equal(t, "{\n  \"title\": \"Les Misérables 📖 日本語\"\n}\n", string(fake.files["books/1.json"]))

	doc, err := c.Read(ctx, "books/1.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Les Misérables 📖 日本語"}`, string(doc.Content))
}

func TestReadLargeFileFallsBackToBlob(t *testing.T) {
	c, fake := newTestClient(t)
	fake.inlineLimit = 10
	big := `{"entries":"` + strings.Repeat("x", 100) + `"}`
	sha := fake.put("activity-log.json", []byte(big))

	doc, err := c.Read(context.Background(), "activity-log.json")
	require.NoError(t, err)
	assert.Equal(t, big, string(doc.Content))
	assert.Equal(t, sha, doc.SHA)
	assert.Contains(t, fake.requests, "GET /repos/owner/repo/git/blobs/"+sha)
}

func TestReadInvalidUTF8IsSerializationError(t *testing.T) {
	c, fake := newTestClient(t)
	fake.put("bad.json", []byte{0xff, 0xfe})

	_, err := c.Read(context.Background(), "bad.json")
	var serr *domain.SerializationError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "bad.json", serr.Path)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	sha, err := c.Write(ctx, "books/9.json", map[string]int{"n": 1}, nil, "add")
	require.NoError(t, err)

	assert.ErrorIs(t, c.Remove(ctx, "books/9.json", "stale", "rm"), domain.ErrConflict)
	require.NoError(t, c.Remove(ctx, "books/9.json", sha, "rm"))

	_, err = c.Read(ctx, "books/9.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList(t *testing.T) {
	c, fake := newTestClient(t)
	fake.put("data/users/a_x_com.json", []byte(`{}`))
	fake.put("data/users/b_x_com.json", []byte(`{}`))
	fake.put("data/books.json", []byte(`[]`))

	entries, err := c.List(context.Background(), "data/users")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "file", e.Type)
		assert.True(t, strings.HasPrefix(e.Path, "data/users/"))
	}
}

func TestBranchIsSent(t *testing.T) {
	fake, srv := newFakeContents(t)
	c := NewClient(Config{Token: "t", Owner: "owner", Repo: "repo", Branch: "content", APIURL: srv.URL}, testLogger())

	_, err := c.Write(context.Background(), "x.json", 1, nil, "x")
	require.NoError(t, err)
	assert.Equal(t, "content", fake.lastBranch)

	_, err = c.Read(context.Background(), "x.json")
	require.NoError(t, err)
	assert.Equal(t, "content", fake.lastBranch)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
	}))
	defer srv.Close()
	c := NewClient(Config{Token: "tok", Owner: "owner", Repo: "repo", APIURL: srv.URL}, testLogger())

	_, err := c.Read(context.Background(), "feed.json")
	var terr *domain.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusInternalServerError, terr.Status)
	assert.Equal(t, "boom", terr.Message)
}

func TestEncodingMatchesCodec(t *testing.T) {
	c, fake := newTestClient(t)
	fake.put("note.json", []byte(`"ünïcode"`))

	doc, err := c.Read(context.Background(), "note.json")
	require.NoError(t, err)
	decoded, err := codec.Decode(codec.EncodeBytes(doc.Content))
	require.NoError(t, err)
	assert.Equal(t, `"ünïcode"`, decoded)
}
