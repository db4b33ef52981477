package models

import (
	"regexp"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// User is the per-user document stored at users/<sanitized-email>.json
type User struct {
	Email         string    `json:"email"`
	Password      string    `json:"password,omitempty"` // bcrypt hash; legacy documents may hold plaintext
	Username      string    `json:"username"`
	FavoriteBooks []string  `json:"favorite_books"`
	CreatedBooks  []string  `json:"created_books"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

var nonFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// EmailFilename maps an email to its document filename: every character outside
// [a-z0-9] (case-insensitive) becomes '_', the result is lowercased.
func EmailFilename(email string) string {
	return strings.ToLower(nonFilenameChars.ReplaceAllString(email, "_")) + ".json"
}

// UsernameFromEmail returns the local part of an email address
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Normalize fills missing collections after decoding older documents
func (u *User) Normalize() {
	u.FavoriteBooks = dedupe(u.FavoriteBooks)
	u.CreatedBooks = dedupe(u.CreatedBooks)
	if u.Username == "" {
		u.Username = UsernameFromEmail(u.Email)
	}
}

// IsFavorite reports whether bookID is in the user's favorites
func (u *User) IsFavorite(bookID string) bool {
	return mapset.NewThreadUnsafeSet(u.FavoriteBooks...).Contains(bookID)
}

// ToggleFavorite adds bookID to favorites, or removes it when already present.
// Returns true when the book is a favorite after the call.
func (u *User) ToggleFavorite(bookID string) bool {
	if u.IsFavorite(bookID) {
		u.FavoriteBooks = remove(u.FavoriteBooks, bookID)
		return false
	}
	u.FavoriteBooks = append(u.FavoriteBooks, bookID)
	return true
}

// AddCreatedBook records bookID as authored by the user (idempotent)
func (u *User) AddCreatedBook(bookID string) {
	if mapset.NewThreadUnsafeSet(u.CreatedBooks...).Contains(bookID) {
		return
	}
	u.CreatedBooks = append(u.CreatedBooks, bookID)
}

// RemoveCreatedBook forgets bookID from the user's authored list
func (u *User) RemoveCreatedBook(bookID string) {
	u.CreatedBooks = remove(u.CreatedBooks, bookID)
}

// OwnsBook reports whether the user authored bookID
func (u *User) OwnsBook(bookID string) bool {
	return mapset.NewThreadUnsafeSet(u.CreatedBooks...).Contains(bookID)
}

// Public returns a copy safe to send to clients (no password)
func (u User) Public() User {
	u.Password = ""
	u.FavoriteBooks = append([]string{}, u.FavoriteBooks...)
	u.CreatedBooks = append([]string{}, u.CreatedBooks...)
	return u
}

// dedupe keeps first occurrences in order and never returns nil
func dedupe(ids []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen.Add(id) {
			out = append(out, id)
		}
	}
	return out
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
