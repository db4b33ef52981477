package services

import (
	"context"

	"bookora/internal/domain/models"
)

// CreatePostRequest is the payload for POST /api/feed
type CreatePostRequest struct {
	Content string   `json:"content"`
	Images  []string `json:"images"`
}

// UpdatePostRequest replaces post content. Nil images keeps the existing ones.
type UpdatePostRequest struct {
	Content string    `json:"content"`
	Images  *[]string `json:"images,omitempty"`
}

// FeedService owns feed.json
type FeedService interface {
	Refresh(ctx context.Context) error
	List(viewer string) []models.FeedItem
	PostsBy(userID, viewer string) []models.FeedItem
	Get(id, viewer string) (*models.FeedItem, error)

	AddPost(ctx context.Context, author string, req *CreatePostRequest) (*models.FeedItem, error)
	UpdatePost(ctx context.Context, actor, id string, req *UpdatePostRequest) (*models.FeedItem, error)
	DeletePost(ctx context.Context, actor, id string) error

	ToggleLike(ctx context.Context, viewer, id string) (*models.FeedItem, error)
	SharePost(ctx context.Context, viewer, id string) (*models.FeedItem, error)
	AddComment(ctx context.Context, viewer, id string) (*models.FeedItem, error)
}
