package handler

import (
	"log/slog"
	"net/http"

	"bookora/internal/domain/models"
	"bookora/internal/domain/services"
	"bookora/internal/httputil"
)

// BookHandler handles library HTTP requests
type BookHandler struct {
	bookService services.BookService
	logger      *slog.Logger
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService services.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		bookService: bookService,
		logger:      logger,
	}
}

// ListBooks searches, filters and sorts the library
// GET /api/books?q=&genre=&sort=newest|mostViewed|mostDownloaded&limit=&offset=
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list := h.bookService.List(services.BookFilter{
		Query:  q.Get("q"),
		Genre:  q.Get("genre"),
		Sort:   q.Get("sort"),
		Limit:  httputil.QueryInt(r, "limit", 0),
		Offset: httputil.QueryInt(r, "offset", 0),
	})
	httputil.RespondJSON(w, http.StatusOK, list)
}

// ListGenres returns "All" plus every genre in the library
// GET /api/books/genres
func (h *BookHandler) ListGenres(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.bookService.Genres())
}

// GetBook returns the index entry (pages stripped)
// GET /api/books/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.bookService.Get(r.PathValue("id"))
	respond(w, http.StatusOK, book, err)
}

// GetBookDetails returns the full book with pages
// GET /api/books/{id}/details
func (h *BookHandler) GetBookDetails(w http.ResponseWriter, r *http.Request) {
	book, err := h.bookService.FetchDetails(r.Context(), r.PathValue("id"))
	respond(w, http.StatusOK, book, err)
}

// CreateBook publishes a new book owned by the caller
// POST /api/books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req services.CreateBookRequest
	if !parseBody(w, r, &req) {
		return
	}

	book, err := h.bookService.Add(r.Context(), httputil.GetUserEmail(r), &req)
	respond(w, http.StatusCreated, book, err)
}

// UpdateBook replaces a book's content. The id in the path wins over the body.
// PUT /api/books/{id}
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	var book models.Book
	if !parseBody(w, r, &book) {
		return
	}
	book.ID = r.PathValue("id")

	updated, err := h.bookService.Update(r.Context(), httputil.GetUserEmail(r), &book)
	respond(w, http.StatusOK, updated, err)
}

// DeleteBook removes a book
// DELETE /api/books/{id}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	err := h.bookService.Delete(r.Context(), httputil.GetUserEmail(r), r.PathValue("id"))
	respond(w, http.StatusNoContent, nil, err)
}

// MyBooks lists the books the caller created
// GET /api/users/me/books
func (h *BookHandler) MyBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.bookService.MyBooks(r.Context(), httputil.GetUserEmail(r))
	respond(w, http.StatusOK, books, err)
}

// Favorites lists the caller's favorite books
// GET /api/users/me/favorites
func (h *BookHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	books, err := h.bookService.Favorites(r.Context(), httputil.GetUserEmail(r))
	respond(w, http.StatusOK, books, err)
}

// RecordView increments the view counter
// POST /api/books/{id}/view
func (h *BookHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	book, err := h.bookService.RecordView(r.Context(), r.PathValue("id"))
	respond(w, http.StatusOK, book, err)
}

// Download exports the book as PDF (or markdown with ?format=md) and
// increments the download counter
// GET /api/books/{id}/download
func (h *BookHandler) Download(w http.ResponseWriter, r *http.Request) {
	export, err := h.bookService.Download(r.Context(), r.PathValue("id"), r.URL.Query().Get("format"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondAttachment(w, export.Filename, export.ContentType, export.Content)
}
