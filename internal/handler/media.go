package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"bookora/internal/config"
	"bookora/internal/httputil"
)

// MediaUploader is the object storage the media endpoint writes to
type MediaUploader interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
	GenerateFilename(originalName, prefix string) string
}

// MediaHandler accepts direct media uploads
type MediaHandler struct {
	storage MediaUploader
	logger  *slog.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(storage MediaUploader, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{storage: storage, logger: logger}
}

// UploadResponse carries the hosted URL (or inline data URL without object storage)
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload stores one file and returns its URL. Unlike inline images in books
// and posts, a failed upload here is reported instead of falling back.
// POST /api/media (multipart: file, prefix)
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	name := h.storage.GenerateFilename(header.Filename, r.FormValue("prefix"))
	url, err := h.storage.Upload(r.Context(), name, header.Header.Get("Content-Type"), data)
	if err != nil {
		h.logger.Error("media upload failed", "name", name, "error", err)
		httputil.RespondError(w, http.StatusBadGateway, "media upload failed")
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, UploadResponse{URL: url})
}
