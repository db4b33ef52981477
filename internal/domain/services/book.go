package services

import (
	"context"

	"bookora/internal/domain/models"
)

// Sort orders for the library listing
const (
	SortNewest         = "newest"
	SortMostViewed     = "mostViewed"
	SortMostDownloaded = "mostDownloaded"
)

// GenreAll matches every genre
const GenreAll = "All"

// BookFilter selects and orders books from the index
type BookFilter struct {
	Query  string // matched against title and author, case-insensitive
	Genre  string // "" or "All" matches every genre
	Sort   string
	Limit  int
	Offset int
}

// BookList is one page of the library listing
type BookList struct {
	Books  []models.Book `json:"books"`
	Total  int           `json:"total"`
	Genres []string      `json:"genres"`
}

// CreateBookRequest is the payload for POST /api/books
type CreateBookRequest struct {
	Title       string        `json:"title"`
	Author      string        `json:"author"`
	Genre       string        `json:"genre"`
	Description string        `json:"description"`
	CoverImage  string        `json:"coverImage"`
	Pages       []models.Page `json:"pages"`
}

// Download formats
const (
	ExportPDF      = "pdf"
	ExportMarkdown = "md"
)

// Export is a rendered book file
type Export struct {
	Filename    string
	ContentType string
	Content     []byte
}

// BookService owns the books index plus one document per book
type BookService interface {
	Load(ctx context.Context) error
	List(filter BookFilter) *BookList
	Genres() []string

	// Get returns the index projection (pages stripped)
	Get(id string) (*models.Book, error)

	// FetchDetails reads the full per-book document
	FetchDetails(ctx context.Context, id string) (*models.Book, error)

	Add(ctx context.Context, owner string, req *CreateBookRequest) (*models.Book, error)
	Update(ctx context.Context, actor string, book *models.Book) (*models.Book, error)
	Delete(ctx context.Context, actor, id string) error

	MyBooks(ctx context.Context, email string) ([]models.Book, error)
	Favorites(ctx context.Context, email string) ([]models.Book, error)

	RecordView(ctx context.Context, id string) (*models.Book, error)
	// Download renders the book in format ("" means PDF) and counts the download
	Download(ctx context.Context, id, format string) (*Export, error)
}
