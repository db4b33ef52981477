package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookora/internal/domain"
	"bookora/internal/domain/models"
	"bookora/internal/domain/services"
)

// OwnerBasedAuthorizer implements ResourceAuthorizer using ownership checks.
// A user can edit a book listed in their created_books, and a post they wrote.
// Admins can edit everything.
type OwnerBasedAuthorizer struct {
	users  services.AuthService
	admins services.AdminService
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(users services.AuthService, admins services.AdminService) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{users: users, admins: admins}
}

// CanEditBook checks the book is in the user's created_books
func (a *OwnerBasedAuthorizer) CanEditBook(ctx context.Context, email, bookID string) error {
	if email == "" {
		return domain.ErrUnauthorized
	}
	if a.admins != nil && a.admins.IsAdmin(email) {
		return nil
	}

	user, err := a.users.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("access denied to book %s: %w", bookID, domain.ErrForbidden)
		}
		return fmt.Errorf("check book access: %w", err)
	}
	if !user.OwnsBook(bookID) {
		return fmt.Errorf("access denied to book %s: %w", bookID, domain.ErrForbidden)
	}
	return nil
}

// CanEditPost checks the user wrote the post
func (a *OwnerBasedAuthorizer) CanEditPost(_ context.Context, email string, post *models.FeedItem) error {
	if email == "" {
		return domain.ErrUnauthorized
	}
	if a.admins != nil && a.admins.IsAdmin(email) {
		return nil
	}
	if !strings.EqualFold(post.UserID, email) {
		return fmt.Errorf("access denied to post %s: %w", post.ID, domain.ErrForbidden)
	}
	return nil
}
