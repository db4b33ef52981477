package service

import (
	"path"
	"strings"

	"bookora/internal/domain/models"
)

// Paths maps domain documents to store paths under a common data prefix
type Paths struct {
	prefix string
}

// NewPaths creates a path layout rooted at prefix (e.g. "src/assets/data/")
func NewPaths(prefix string) Paths {
	prefix = strings.Trim(prefix, "/")
	return Paths{prefix: prefix}
}

func (p Paths) join(elem ...string) string {
	if p.prefix == "" {
		return path.Join(elem...)
	}
	return path.Join(append([]string{p.prefix}, elem...)...)
}

func (p Paths) UsersDir() string { return p.join("users") }
func (p Paths) User(email string) string { return p.join("users", models.EmailFilename(email)) }
func (p Paths) BooksIndex() string { return p.join("books.json") }
func (p Paths) Book(id string) string { return p.join("books", id+".json") }
func (p Paths) Feed() string { return p.join("feed.json") }
func (p Paths) ActivityLog() string { return p.join("activity-log.json") }
