// Package memory is an in-process DocumentStore with the same version-token
// contract as the contents API. Used for development and tests.
package memory

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"bookora/internal/domain"
	"bookora/internal/domain/repositories"
	"bookora/internal/repository/codec"
)

type record struct {
	content []byte
	sha     string
}

// Store keeps documents in a map guarded by a mutex
type Store struct {
	mu    sync.RWMutex
	docs  map[string]record
	stats Stats
}

// Stats counts calls, handy in tests asserting how many writes a flow made
type Stats struct {
	Reads   int
	Writes  int
	Removes int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{docs: make(map[string]record)}
}

// IsConfigured is always true
func (s *Store) IsConfigured() bool { return true }

// Read returns a copy of the stored bytes
func (s *Store) Read(_ context.Context, p string) (*repositories.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Reads++

	rec, ok := s.docs[clean(p)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &repositories.Document{Content: append([]byte{}, rec.content...), SHA: rec.sha}, nil
}

// Write applies create-or-replace semantics keyed on sha
func (s *Store) Write(_ context.Context, p string, value any, sha *string, _ string) (string, error) {
	data, err := codec.Marshal(p, value)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Writes++

	key := clean(p)
	current, exists := s.docs[key]
	switch {
	case sha == nil && exists:
		return "", conflict(key, "document already exists")
	case sha != nil && !exists:
		return "", conflict(key, "document does not exist")
	case sha != nil && *sha != current.sha:
		return "", conflict(key, fmt.Sprintf("sha %s is not current", *sha))
	}

	next := uuid.NewString()
	s.docs[key] = record{content: data, sha: next}
	return next, nil
}

// Remove deletes p when sha is current
func (s *Store) Remove(_ context.Context, p string, sha string, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Removes++

	key := clean(p)
	current, exists := s.docs[key]
	if !exists {
		return domain.ErrNotFound
	}
	if current.sha != sha {
		return conflict(key, fmt.Sprintf("sha %s is not current", sha))
	}
	delete(s.docs, key)
	return nil
}

// List returns direct children of dir, directories included
func (s *Store) List(_ context.Context, dir string) ([]repositories.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := clean(dir) + "/"
	seen := map[string]repositories.Entry{}
	for key, rec := range s.docs {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		name, _, isDir := strings.Cut(rest, "/")
		if isDir {
			seen[name] = repositories.Entry{Name: name, Path: prefix + name, Type: "dir"}
			continue
		}
		seen[name] = repositories.Entry{Name: name, Path: key, SHA: rec.sha, Size: int64(len(rec.content)), Type: "file"}
	}
	if len(seen) == 0 {
		return nil, domain.ErrNotFound
	}

	entries := make([]repositories.Entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Stats returns call counters
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Put seeds raw content, bypassing token checks
func (s *Store) Put(p string, content []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sha := uuid.NewString()
	s.docs[clean(p)] = record{content: content, sha: sha}
	return sha
}

func clean(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func conflict(p, msg string) error {
	return &domain.ConflictError{Message: p + ": " + msg, ResourceType: "document", ResourceID: p}
}
