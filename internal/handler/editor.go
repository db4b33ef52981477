package handler

import (
	"log/slog"
	"net/http"

	"bookora/internal/domain/models"
	"bookora/internal/httputil"
	"bookora/internal/service/editor"
)

// EditorHandler exposes editor sessions. Every route is scoped to the
// session owner.
type EditorHandler struct {
	editor *editor.Manager
	logger *slog.Logger
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(manager *editor.Manager, logger *slog.Logger) *EditorHandler {
	return &EditorHandler{
		editor: manager,
		logger: logger,
	}
}

// OpenSessionRequest names the book to edit or read
type OpenSessionRequest struct {
	BookID string `json:"bookId"`
}

// PageIndexRequest selects a page by 0-based index
type PageIndexRequest struct {
	Index int `json:"index"`
}

// AddBlockRequest appends a block of the given type to the current page
type AddBlockRequest struct {
	Type models.BlockType `json:"type"`
}

// UpdateBlockRequest replaces a block's content
type UpdateBlockRequest struct {
	Content string `json:"content"`
}

// OpenSession loads a book into a new editor session
// POST /api/editor/sessions
func (h *EditorHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !parseBody(w, r, &req) {
		return
	}
	snap, err := h.editor.Open(r.Context(), httputil.GetUserEmail(r), req.BookID)
	respond(w, http.StatusCreated, snap, err)
}

// GetSession returns the working copy and save state
// GET /api/editor/sessions/{id}
func (h *EditorHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.editor.Get(r.PathValue("id"), httputil.GetUserEmail(r))
	respond(w, http.StatusOK, snap, err)
}

// AddPage appends an empty page and selects it
// POST /api/editor/sessions/{id}/pages
func (h *EditorHandler) AddPage(w http.ResponseWriter, r *http.Request) {
	snap, err := h.editor.AddPage(r.PathValue("id"), httputil.GetUserEmail(r))
	respond(w, http.StatusOK, snap, err)
}

// DeletePage removes the page at index
// DELETE /api/editor/sessions/{id}/pages/{index}
func (h *EditorHandler) DeletePage(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r, "index")
	if err != nil {
		handleError(w, err)
		return
	}
	snap, err := h.editor.DeletePage(r.PathValue("id"), httputil.GetUserEmail(r), index)
	respond(w, http.StatusOK, snap, err)
}

// SelectPage moves the editor to another page
// PUT /api/editor/sessions/{id}/current
func (h *EditorHandler) SelectPage(w http.ResponseWriter, r *http.Request) {
	var req PageIndexRequest
	if !parseBody(w, r, &req) {
		return
	}
	snap, err := h.editor.SelectPage(r.PathValue("id"), httputil.GetUserEmail(r), req.Index)
	respond(w, http.StatusOK, snap, err)
}

// AddBlock appends a block to the current page
// POST /api/editor/sessions/{id}/blocks
func (h *EditorHandler) AddBlock(w http.ResponseWriter, r *http.Request) {
	var req AddBlockRequest
	if !parseBody(w, r, &req) {
		return
	}
	snap, err := h.editor.AddBlock(r.PathValue("id"), httputil.GetUserEmail(r), req.Type)
	respond(w, http.StatusOK, snap, err)
}

// UpdateBlock edits a block on the current page
// PATCH /api/editor/sessions/{id}/blocks/{blockId}
func (h *EditorHandler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	var req UpdateBlockRequest
	if !parseBody(w, r, &req) {
		return
	}
	snap, err := h.editor.UpdateBlock(r.PathValue("id"), httputil.GetUserEmail(r), r.PathValue("blockId"), req.Content)
	respond(w, http.StatusOK, snap, err)
}

// DeleteBlock removes a block from the current page
// DELETE /api/editor/sessions/{id}/blocks/{blockId}
func (h *EditorHandler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	snap, err := h.editor.DeleteBlock(r.PathValue("id"), httputil.GetUserEmail(r), r.PathValue("blockId"))
	respond(w, http.StatusOK, snap, err)
}

// Save flushes pending edits immediately
// POST /api/editor/sessions/{id}/save
func (h *EditorHandler) Save(w http.ResponseWriter, r *http.Request) {
	snap, err := h.editor.Save(r.Context(), r.PathValue("id"), httputil.GetUserEmail(r))
	respond(w, http.StatusOK, snap, err)
}

// CloseSession flushes and ends the session
// DELETE /api/editor/sessions/{id}
func (h *EditorHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	err := h.editor.Close(r.Context(), r.PathValue("id"), httputil.GetUserEmail(r))
	respond(w, http.StatusNoContent, nil, err)
}
