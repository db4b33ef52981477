// Package fallback serves bundled demo documents when the remote store has no
// credentials. Reads translate the remote path to an embedded asset path;
// writes are rejected with domain.ErrNotConfigured.
package fallback

import (
	"context"
	"crypto/sha1"
	"embed"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"bookora/internal/domain"
	"bookora/internal/domain/repositories"
)

//go:embed assets
var bundled embed.FS

// Store wraps a remote store
type Store struct {
	remote repositories.DocumentStore
	assets fs.FS
	logger *slog.Logger
}

// New wraps remote; when remote is configured every call passes straight through
func New(remote repositories.DocumentStore, logger *slog.Logger) *Store {
	sub, _ := fs.Sub(bundled, "assets")
	return &Store{remote: remote, assets: sub, logger: logger}
}

// NewWithAssets uses a caller-supplied asset tree (tests)
func NewWithAssets(remote repositories.DocumentStore, assets fs.FS, logger *slog.Logger) *Store {
	return &Store{remote: remote, assets: assets, logger: logger}
}

// IsConfigured reports the wrapped store's configuration
func (s *Store) IsConfigured() bool {
	return s.remote != nil && s.remote.IsConfigured()
}

// Read falls back to the bundled asset when the remote is not configured
func (s *Store) Read(ctx context.Context, p string) (*repositories.Document, error) {
	if s.IsConfigured() {
		return s.remote.Read(ctx, p)
	}

	data, err := fs.ReadFile(s.assets, AssetPath(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	sum := sha1.Sum(data)
	return &repositories.Document{Content: data, SHA: hex.EncodeToString(sum[:])}, nil
}

// Write is rejected without remote credentials
func (s *Store) Write(ctx context.Context, p string, value any, sha *string, message string) (string, error) {
	if s.IsConfigured() {
		return s.remote.Write(ctx, p, value, sha, message)
	}
	s.logger.Debug("write skipped, store not configured", "path", p)
	return "", domain.ErrNotConfigured
}

// Remove is rejected without remote credentials
func (s *Store) Remove(ctx context.Context, p string, sha string, message string) error {
	if s.IsConfigured() {
		return s.remote.Remove(ctx, p, sha, message)
	}
	return domain.ErrNotConfigured
}

// List lists the bundled directory when the remote is not configured
func (s *Store) List(ctx context.Context, p string) ([]repositories.Entry, error) {
	if s.IsConfigured() {
		return s.remote.List(ctx, p)
	}

	dir := AssetPath(p)
	items, err := fs.ReadDir(s.assets, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	entries := make([]repositories.Entry, 0, len(items))
	for _, item := range items {
		entry := repositories.Entry{Name: item.Name(), Path: path.Join(strings.Trim(p, "/"), item.Name()), Type: "file"}
		if item.IsDir() {
			entry.Type = "dir"
		} else if info, err := item.Info(); err == nil {
			entry.Size = info.Size()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// AssetPath maps a repository path onto the bundled tree: the leading
// "src/" source directory is dropped, so src/assets/data/feed.json is
// served from data/feed.json.
func AssetPath(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	p = strings.TrimPrefix(p, "src/")
	p = strings.TrimPrefix(p, "assets/")
	if p == "" {
		return "."
	}
	return p
}
