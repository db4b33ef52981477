package handler

import (
	"net/http"

	"bookora/internal/domain/services"
	"bookora/internal/middleware"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Health        *HealthHandler
	Catalog       *CatalogHandler
	Auth          *AuthHandler
	Books         *BookHandler
	Import        *ImportHandler
	Media         *MediaHandler
	Feed          *FeedHandler
	Editor        *EditorHandler
	Reader        *ReaderHandler
	Notifications *NotificationHandler
	Admin         *AdminHandler
}

// NewRouter registers every route (Go 1.22+ method and wildcard patterns).
// Authentication happens in middleware; user and admin routes are gated here.
func NewRouter(h Handlers, admins services.AdminService) *http.ServeMux {
	user := middleware.RequireUser
	admin := middleware.RequireAdmin(admins)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health.HealthCheck)
	mux.HandleFunc("GET /api/catalog", h.Catalog.GetCatalog)

	// Auth and profile
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)
	mux.HandleFunc("GET /api/users/me", user(h.Auth.Me))
	mux.HandleFunc("PATCH /api/users/me", user(h.Auth.UpdateProfile))
	mux.HandleFunc("GET /api/users/me/books", user(h.Books.MyBooks))
	mux.HandleFunc("GET /api/users/me/favorites", user(h.Books.Favorites))
	mux.HandleFunc("POST /api/users/me/favorites/{id}", user(h.Auth.ToggleFavorite))
	mux.HandleFunc("GET /api/users/{userId}/posts", h.Feed.PostsByUser)

	// Books
	mux.HandleFunc("GET /api/books", h.Books.ListBooks)
	mux.HandleFunc("GET /api/books/genres", h.Books.ListGenres) // Must come before {id} route
	mux.HandleFunc("POST /api/books", user(h.Books.CreateBook))
	mux.HandleFunc("POST /api/books/import", user(h.Import.Import))
	mux.HandleFunc("GET /api/books/{id}", h.Books.GetBook)
	mux.HandleFunc("GET /api/books/{id}/details", h.Books.GetBookDetails)
	mux.HandleFunc("PUT /api/books/{id}", user(h.Books.UpdateBook))
	mux.HandleFunc("DELETE /api/books/{id}", user(h.Books.DeleteBook))
	mux.HandleFunc("POST /api/books/{id}/view", h.Books.RecordView)
	mux.HandleFunc("GET /api/books/{id}/download", h.Books.Download)

	mux.HandleFunc("POST /api/media", user(h.Media.Upload))

	// Feed
	mux.HandleFunc("GET /api/feed", h.Feed.ListPosts)
	mux.HandleFunc("POST /api/feed", user(h.Feed.CreatePost))
	mux.HandleFunc("GET /api/feed/{id}", h.Feed.GetPost)
	mux.HandleFunc("PUT /api/feed/{id}", user(h.Feed.UpdatePost))
	mux.HandleFunc("DELETE /api/feed/{id}", user(h.Feed.DeletePost))
	mux.HandleFunc("POST /api/feed/{id}/like", user(h.Feed.ToggleLike))
	mux.HandleFunc("POST /api/feed/{id}/share", user(h.Feed.SharePost))
	mux.HandleFunc("POST /api/feed/{id}/comment", user(h.Feed.AddComment))

	// Editor sessions
	mux.HandleFunc("POST /api/editor/sessions", user(h.Editor.OpenSession))
	mux.HandleFunc("GET /api/editor/sessions/{id}", user(h.Editor.GetSession))
	mux.HandleFunc("DELETE /api/editor/sessions/{id}", user(h.Editor.CloseSession))
	mux.HandleFunc("POST /api/editor/sessions/{id}/save", user(h.Editor.Save))
	mux.HandleFunc("PUT /api/editor/sessions/{id}/current", user(h.Editor.SelectPage))
	mux.HandleFunc("POST /api/editor/sessions/{id}/pages", user(h.Editor.AddPage))
	mux.HandleFunc("DELETE /api/editor/sessions/{id}/pages/{index}", user(h.Editor.DeletePage))
	mux.HandleFunc("POST /api/editor/sessions/{id}/blocks", user(h.Editor.AddBlock))
	mux.HandleFunc("PATCH /api/editor/sessions/{id}/blocks/{blockId}", user(h.Editor.UpdateBlock))
	mux.HandleFunc("DELETE /api/editor/sessions/{id}/blocks/{blockId}", user(h.Editor.DeleteBlock))

	// Reader sessions
	mux.HandleFunc("POST /api/reader/sessions", h.Reader.OpenSession)
	mux.HandleFunc("GET /api/reader/sessions/{id}", h.Reader.GetSession)
	mux.HandleFunc("DELETE /api/reader/sessions/{id}", h.Reader.CloseSession)
	mux.HandleFunc("POST /api/reader/sessions/{id}/next", h.Reader.Next)
	mux.HandleFunc("POST /api/reader/sessions/{id}/prev", h.Reader.Prev)
	mux.HandleFunc("PUT /api/reader/sessions/{id}/page", h.Reader.GoTo)

	// Notifications
	mux.HandleFunc("GET /api/notifications", user(h.Notifications.List))
	mux.HandleFunc("DELETE /api/notifications", user(h.Notifications.DeleteAll))
	mux.HandleFunc("GET /api/notifications/unread", user(h.Notifications.RecentUnread))
	mux.HandleFunc("GET /api/notifications/ws", user(h.Notifications.Stream))
	mux.HandleFunc("POST /api/notifications/read", user(h.Notifications.MarkAllRead))
	mux.HandleFunc("POST /api/notifications/{id}/read", user(h.Notifications.MarkRead))
	mux.HandleFunc("DELETE /api/notifications/{id}", user(h.Notifications.Delete))

	// Admin
	mux.HandleFunc("GET /api/admin/me", user(h.Admin.AdminStatus))
	mux.HandleFunc("GET /api/admin/logs", admin(h.Admin.ListLogs))
	mux.HandleFunc("GET /api/admin/stats", admin(h.Admin.Stats))

	return mux
}
