package services

import (
	"context"
	"io"

	"bookora/internal/domain/models"
)

// ImportService creates a book from an uploaded file (pdf, markdown, text,
// html or a zip of those). Fields set on defaults win over anything the file declares.
type ImportService interface {
	Import(ctx context.Context, owner, filename string, file io.Reader, defaults CreateBookRequest) (*models.Book, error)
	SupportedExtensions() []string
}
