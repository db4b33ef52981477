package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bookora/internal/auth"
	"bookora/internal/cache"
	"bookora/internal/catalog"
	"bookora/internal/domain/repositories"
	"bookora/internal/domain/services"
	svcauth "bookora/internal/service/auth"
	"bookora/internal/service/docsync"
	"bookora/internal/service/editor"
	"bookora/internal/service/importer"
	"bookora/internal/service/reader"
)

// Dependencies are the infrastructure pieces the services are built on
type Dependencies struct {
	Store         repositories.DocumentStore
	DataPrefix    string
	Catalog       *catalog.Registry
	Cache         cache.BookCache // nil disables caching
	Media         MediaUploader
	Tokens        auth.TokenIssuer
	AdminEmails   []string
	AutosaveDelay time.Duration
	FlipDuration  time.Duration // zero uses reader.DefaultFlipDuration
}

// Services holds every domain service, wired together
type Services struct {
	Syncer        *docsync.Syncer
	Paths         Paths
	Admins        services.AdminService
	Users         services.AuthService
	Books         services.BookService
	Feed          services.FeedService
	Activity      services.ActivityLogService
	Notifications services.NotificationService
	Imports       services.ImportService
	Authorizer    services.ResourceAuthorizer
	Editor        *editor.Manager
	Reader        *reader.Manager
}

// SetupServices builds the services in dependency order: the sync layer,
// then users and the activity log, then the book and feed services that
// notify and log through them.
func SetupServices(deps Dependencies, logger *slog.Logger) *Services {
	syncer := docsync.NewSyncer(deps.Store, logger)
	paths := NewPaths(deps.DataPrefix)

	admins := NewAdminService(deps.AdminEmails)
	notifications := NewNotificationService(logger)
	users := NewAuthService(syncer, paths, deps.Tokens, admins, logger)
	activity := NewActivityLogService(syncer, paths, logger)
	authorizer := svcauth.NewOwnerBasedAuthorizer(users, admins)

	books := NewBookService(syncer, paths, deps.Catalog, deps.Cache, deps.Media, users, authorizer, notifications, activity, logger)
	feed := NewFeedService(syncer, paths, deps.Media, authorizer, notifications, activity, logger)

	flip := deps.FlipDuration
	if flip <= 0 {
		flip = reader.DefaultFlipDuration
	}

	return &Services{
		Syncer:        syncer,
		Paths:         paths,
		Admins:        admins,
		Users:         users,
		Books:         books,
		Feed:          feed,
		Activity:      activity,
		Notifications: notifications,
		Imports:       importer.NewImportService(books, logger),
		Authorizer:    authorizer,
		Editor:        editor.NewManager(books, authorizer, deps.AutosaveDelay, logger),
		Reader:        reader.NewManager(books, flip, logger),
	}
}

// Reload refreshes the books, feed and activity log mirrors from the store.
// Every mirror is attempted; the first error is returned.
func (s *Services) Reload(ctx context.Context) error {
	var first error
	for name, load := range map[string]func(context.Context) error{
		"books":    s.Books.Load,
		"feed":     s.Feed.Refresh,
		"activity": s.Activity.Refresh,
	} {
		if err := load(ctx); err != nil && first == nil {
			first = fmt.Errorf("reload %s: %w", name, err)
		}
	}
	return first
}

// ExpireSessions closes editor and reader sessions idle for longer than idle.
// Editor sessions are flushed before they are dropped.
func (s *Services) ExpireSessions(ctx context.Context, idle time.Duration) error {
	s.Editor.Expire(ctx, idle)
	s.Reader.Expire(idle)
	return ctx.Err()
}
