package repositories

import "context"

// Document is raw stored content plus its opaque version token
type Document struct {
	Content []byte
	SHA     string
}

// Entry is directory listing metadata
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
	Type string `json:"type"` // "file" or "dir"
}

// DocumentStore is a path-keyed JSON document store with optimistic concurrency.
//
// Read returns domain.ErrNotFound when the path does not exist.
// Write with a nil sha creates the document and fails with domain.ErrConflict if
// it already exists; a non-nil sha replaces it only when the sha is current.
// Every successful write produces a token different from the one it replaced.
type DocumentStore interface {
	Read(ctx context.Context, path string) (*Document, error)
	Write(ctx context.Context, path string, value any, sha *string, message string) (string, error)
	Remove(ctx context.Context, path string, sha string, message string) error
	List(ctx context.Context, path string) ([]Entry, error)
	IsConfigured() bool
}
