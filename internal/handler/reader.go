package handler

import (
	"net/http"

	"bookora/internal/service/reader"
)

// ReaderHandler exposes paginated reading sessions
type ReaderHandler struct {
	reader *reader.Manager
}

// NewReaderHandler creates a new reader handler
func NewReaderHandler(manager *reader.Manager) *ReaderHandler {
	return &ReaderHandler{reader: manager}
}

// OpenSession fetches the book, records a view and starts at page one
// POST /api/reader/sessions
func (h *ReaderHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !parseBody(w, r, &req) {
		return
	}
	snap, err := h.reader.Open(r.Context(), req.BookID)
	respond(w, http.StatusCreated, snap, err)
}

// GetSession returns the current page and progress
// GET /api/reader/sessions/{id}
func (h *ReaderHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.reader.Get(r.PathValue("id"))
	respond(w, http.StatusOK, snap, err)
}

// Next starts a page flip; the page advances when the flip ends
// POST /api/reader/sessions/{id}/next
func (h *ReaderHandler) Next(w http.ResponseWriter, r *http.Request) {
	snap, err := h.reader.Next(r.PathValue("id"))
	respond(w, http.StatusOK, snap, err)
}

// Prev goes back one page
// POST /api/reader/sessions/{id}/prev
func (h *ReaderHandler) Prev(w http.ResponseWriter, r *http.Request) {
	snap, err := h.reader.Prev(r.PathValue("id"))
	respond(w, http.StatusOK, snap, err)
}

// GoTo jumps to a page, clamped to the book
// PUT /api/reader/sessions/{id}/page
func (h *ReaderHandler) GoTo(w http.ResponseWriter, r *http.Request) {
	var req PageIndexRequest
	if !parseBody(w, r, &req) {
		return
	}
	snap, err := h.reader.GoTo(r.PathValue("id"), req.Index)
	respond(w, http.StatusOK, snap, err)
}

// CloseSession ends the session
// DELETE /api/reader/sessions/{id}
func (h *ReaderHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusNoContent, nil, h.reader.Close(r.PathValue("id")))
}
