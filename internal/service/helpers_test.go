package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bookora/internal/catalog"
	"bookora/internal/domain/repositories"
	"bookora/internal/domain/services"
	"bookora/internal/repository/memory"
	svcauth "bookora/internal/service/auth"
	"bookora/internal/service/docsync"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeIssuer struct{}

func (fakeIssuer) Issue(email, _ string, admin bool) (string, error) {
	if admin {
		return "admin-token-" + email, nil
	}
	return "token-" + email, nil
}

// fakeMedia pretends to host every data URL it is given. onUpload, when set,
// runs before each upload.
type fakeMedia struct {
	mu       sync.Mutex
	uploads  []string
	onUpload func()
}

func (m *fakeMedia) UploadDataURL(_ context.Context, dataURL, prefix string) string {
	if !strings.HasPrefix(dataURL, "data:") {
		return dataURL
	}
	if m.onUpload != nil {
		m.onUpload()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, prefix)
	return "https://cdn.test/" + prefix + ".png"
}

// ticker is a clock that advances one millisecond on every call
type ticker struct {
	mu sync.Mutex
	t  time.Time
}

func newTicker() *ticker {
	return &ticker{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *ticker) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

type harness struct {
	store    *memory.Store
	paths    Paths
	syncer   *docsync.Syncer
	admins   services.AdminService
	users    services.AuthService
	books    services.BookService
	feed     services.FeedService
	activity services.ActivityLogService
	notes    services.NotificationService
	media    *fakeMedia
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithStore(t, memory.NewStore(), nil)
}

// newHarnessWithStore wires every service over store. wrap, when set,
// decorates the store the services write through.
func newHarnessWithStore(t *testing.T, store *memory.Store, wrap func(repositories.DocumentStore) repositories.DocumentStore) *harness {
	t.Helper()

	var docs repositories.DocumentStore = store
	if wrap != nil {
		docs = wrap(store)
	}

	registry, err := catalog.NewRegistry()
	require.NoError(t, err)

	logger := testLogger()
	clock := newTicker()
	h := &harness{
		store:  store,
		paths:  NewPaths("src/assets/data/"),
		syncer: docsync.NewSyncer(docs, logger, docsync.WithRetryDelay(0)),
		admins: NewAdminService([]string{"Admin@Bookora.dev"}),
		notes:  NewNotificationService(logger),
		media:  &fakeMedia{},
	}
	h.users = NewAuthService(h.syncer, h.paths, fakeIssuer{}, h.admins, logger)
	h.activity = NewActivityLogService(h.syncer, h.paths, logger)
	authorizer := svcauth.NewOwnerBasedAuthorizer(h.users, h.admins)
	h.books = NewBookService(h.syncer, h.paths, registry, nil, h.media, h.users, authorizer, h.notes, h.activity, logger)
	h.feed = NewFeedService(h.syncer, h.paths, h.media, authorizer, h.notes, h.activity, logger)

	h.users.(*authService).now = clock.Now
	h.activity.(*activityLogService).now = clock.Now
	h.notes.(*notificationService).now = clock.Now
	h.books.(*bookService).now = clock.Now
	h.feed.(*feedService).now = clock.Now
	return h
}

func (h *harness) register(t *testing.T, email string) {
	t.Helper()
	res, err := h.users.Register(context.Background(), &services.RegisterRequest{Email: email, Password: "secret1"})
	require.NoError(t, err)
	require.True(t, res.Authenticated)
}

// readJSON decodes the stored document at path
func readJSON[T any](t *testing.T, store *memory.Store, path string) T {
	t.Helper()
	doc, err := store.Read(context.Background(), path)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal(doc.Content, &v))
	return v
}
