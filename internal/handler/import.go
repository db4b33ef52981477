package handler

import (
	"log/slog"
	"net/http"

	"bookora/internal/config"
	"bookora/internal/domain/services"
	"bookora/internal/httputil"
)

// ImportHandler creates books from uploaded files
type ImportHandler struct {
	importService services.ImportService
	logger        *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importService services.ImportService, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		logger:        logger,
	}
}

// Import turns one uploaded file into a new book owned by the caller.
// POST /api/books/import
//
// Multipart fields:
//   - file: required, .pdf, .md, .markdown, .txt, .html, .htm or .zip
//   - title, author, genre, description: optional, override the file's front matter
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondErrorWithExtras(w, http.StatusBadRequest, "no file provided", map[string]interface{}{
			"supported": h.importService.SupportedExtensions(),
		})
		return
	}
	defer func() { _ = file.Close() }()

	defaults := services.CreateBookRequest{
		Title:       r.FormValue("title"),
		Author:      r.FormValue("author"),
		Genre:       r.FormValue("genre"),
		Description: r.FormValue("description"),
	}

	h.logger.Info("starting import",
		"file", header.Filename,
		"size", header.Size,
		"owner", httputil.GetUserEmail(r),
	)

	book, err := h.importService.Import(r.Context(), httputil.GetUserEmail(r), header.Filename, file, defaults)
	respond(w, http.StatusCreated, book, err)
}
