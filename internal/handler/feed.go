package handler

import (
	"context"
	"log/slog"
	"net/http"

	"bookora/internal/domain/models"
	"bookora/internal/domain/services"
	"bookora/internal/httputil"
)

// FeedHandler handles social feed HTTP requests
type FeedHandler struct {
	feedService services.FeedService
	logger      *slog.Logger
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(feedService services.FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		logger:      logger,
	}
}

// ListPosts returns the feed newest first; hasLiked is relative to the caller
// GET /api/feed
func (h *FeedHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.feedService.List(httputil.GetUserEmail(r)))
}

// GetPost returns one post
// GET /api/feed/{id}
func (h *FeedHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.feedService.Get(r.PathValue("id"), httputil.GetUserEmail(r))
	respond(w, http.StatusOK, post, err)
}

// PostsByUser returns the posts written by one user
// GET /api/users/{userId}/posts
func (h *FeedHandler) PostsByUser(w http.ResponseWriter, r *http.Request) {
	posts := h.feedService.PostsBy(r.PathValue("userId"), httputil.GetUserEmail(r))
	httputil.RespondJSON(w, http.StatusOK, posts)
}

// CreatePost publishes a post
// POST /api/feed
func (h *FeedHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req services.CreatePostRequest
	if !parseBody(w, r, &req) {
		return
	}

	post, err := h.feedService.AddPost(r.Context(), httputil.GetUserEmail(r), &req)
	respond(w, http.StatusCreated, post, err)
}

// UpdatePost edits a post's content, and its images when the body sends a list
// PUT /api/feed/{id}
func (h *FeedHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req services.UpdatePostRequest
	if !parseBody(w, r, &req) {
		return
	}

	post, err := h.feedService.UpdatePost(r.Context(), httputil.GetUserEmail(r), r.PathValue("id"), &req)
	respond(w, http.StatusOK, post, err)
}

// DeletePost removes a post
// DELETE /api/feed/{id}
func (h *FeedHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	err := h.feedService.DeletePost(r.Context(), httputil.GetUserEmail(r), r.PathValue("id"))
	respond(w, http.StatusNoContent, nil, err)
}

// ToggleLike likes or unlikes a post
// POST /api/feed/{id}/like
func (h *FeedHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	h.interact(w, r, h.feedService.ToggleLike)
}

// SharePost increments the share counter
// POST /api/feed/{id}/share
func (h *FeedHandler) SharePost(w http.ResponseWriter, r *http.Request) {
	h.interact(w, r, h.feedService.SharePost)
}

// AddComment increments the comment counter
// POST /api/feed/{id}/comment
func (h *FeedHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	h.interact(w, r, h.feedService.AddComment)
}

func (h *FeedHandler) interact(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, viewer, id string) (*models.FeedItem, error),
) {
	post, err := fn(r.Context(), httputil.GetUserEmail(r), r.PathValue("id"))
	respond(w, http.StatusOK, post, err)
}
