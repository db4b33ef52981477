package services

import (
	"context"

	"bookora/internal/domain/models"
)

// RegisterRequest is the payload for POST /api/auth/register
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest changes the username and optionally the password
type UpdateProfileRequest struct {
	Username string  `json:"username"`
	Password *string `json:"password,omitempty"`
}

// AuthResult reports the outcome of login or registration.
// Authenticated is false for unknown users and wrong passwords.
type AuthResult struct {
	Authenticated bool         `json:"authenticated"`
	Token         string       `json:"token,omitempty"`
	User          *models.User `json:"user,omitempty"`
}

// AuthService owns the per-user documents
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error)

	// Login never mutates stored state on a failed attempt
	Login(ctx context.Context, req *LoginRequest) (*AuthResult, error)

	GetUser(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, email string, req *UpdateProfileRequest) (*models.User, error)

	// ToggleFavorite is its own inverse. Returns whether the book is now a favorite.
	ToggleFavorite(ctx context.Context, email, bookID string) (bool, error)

	AddCreatedBook(ctx context.Context, email, bookID string) error
	RemoveCreatedBook(ctx context.Context, email, bookID string) error

	// KnownUsers lists every user document, used for broadcast notifications
	KnownUsers(ctx context.Context) ([]string, error)
}

// ResourceAuthorizer checks whether a user may modify a resource
type ResourceAuthorizer interface {
	CanEditBook(ctx context.Context, email, bookID string) error
	CanEditPost(ctx context.Context, email string, post *models.FeedItem) error
}
