package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"bookora/internal/domain"
	"bookora/internal/domain/models"
	"bookora/internal/domain/services"
)

// UnknownAuthor is used when neither the form nor the file names an author
const UnknownAuthor = "Unknown Author"

type importService struct {
	processors *ProcessorRegistry
	converters *ConverterRegistry
	books      services.BookService
	logger     *slog.Logger
}

// NewImportService wires the default processors in front of the book service
func NewImportService(books services.BookService, logger *slog.Logger) services.ImportService {
	converters := NewConverterRegistry()
	return &importService{
		processors: DefaultProcessors(converters, logger),
		converters: converters,
		books:      books,
		logger:     logger,
	}
}

func (s *importService) Import(
	ctx context.Context,
	owner, filename string,
	file io.Reader,
	defaults services.CreateBookRequest,
) (*models.Book, error) {
	if owner == "" {
		return nil, domain.ErrUnauthorized
	}
	processor := s.processors.Get(filename)
	if processor == nil {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("unsupported file type %q", filepath.Ext(filename)),
		}
	}

	draft, err := processor.Process(ctx, file, filename)
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("could not read %s: %v", filename, err)}
	}
	if len(draft.Pages) == 0 {
		return nil, &domain.ValidationError{Message: "file contains no importable content"}
	}

	req := defaults
	req.Title = firstNonEmpty(req.Title, draft.Title, strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	req.Author = firstNonEmpty(req.Author, draft.Author, UnknownAuthor)
	req.Genre = firstNonEmpty(req.Genre, draft.Genre)
	req.Description = firstNonEmpty(req.Description, draft.Description)
	req.Pages = draft.Pages

	s.logger.Info("importing book",
		"filename", filename,
		"processor", processor.Name(),
		"pages", len(draft.Pages),
		"owner", owner,
	)
	return s.books.Add(ctx, owner, &req)
}

// SupportedExtensions lists every extension an upload may carry
func (s *importService) SupportedExtensions() []string {
	return append([]string{".pdf", ".zip"}, s.converters.SupportedExtensions()...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
