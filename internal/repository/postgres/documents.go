package postgres

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookora/internal/domain"
	"bookora/internal/domain/repositories"
	"bookora/internal/repository/codec"
)

// DocumentStore emulates the contents API on a single table: a row per path,
// with sha compared-and-swapped on every write.
type DocumentStore struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentStore creates a postgres-backed DocumentStore
func NewDocumentStore(config *RepositoryConfig) *DocumentStore {
	return &DocumentStore{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// EnsureSchema creates the documents table if missing
func (s *DocumentStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			path       TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			sha        TEXT NOT NULL,
			message    TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, s.tables.Documents)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

// IsConfigured is true once a pool exists
func (s *DocumentStore) IsConfigured() bool {
	return s.pool != nil
}

// Read returns the stored document or domain.ErrNotFound
func (s *DocumentStore) Read(ctx context.Context, path string) (*repositories.Document, error) {
	query := fmt.Sprintf(`SELECT content, sha FROM %s WHERE path = $1`, s.tables.Documents)

	var content, sha string
	err := s.pool.QueryRow(ctx, query, path).Scan(&content, &sha)
	if err != nil {
		return nil, translate("read", path, err)
	}

	return &repositories.Document{Content: []byte(content), SHA: sha}, nil
}

// Write inserts when sha is nil, otherwise updates only if sha is current
func (s *DocumentStore) Write(ctx context.Context, path string, value any, sha *string, message string) (string, error) {
	data, err := codec.Marshal(path, value)
	if err != nil {
		return "", err
	}
	next := newSHA(data)

	if sha == nil {
		query := fmt.Sprintf(`
			INSERT INTO %s (path, content, sha, message, updated_at)
			VALUES ($1, $2, $3, $4, now())
		`, s.tables.Documents)

		if _, err := s.pool.Exec(ctx, query, path, string(data), next, message); err != nil {
			return "", translate("create", path, err)
		}
		return next, nil
	}

	query := fmt.Sprintf(`
		UPDATE %s SET content = $2, sha = $3, message = $4, updated_at = now()
		WHERE path = $1 AND sha = $5
	`, s.tables.Documents)

	tag, err := s.pool.Exec(ctx, query, path, string(data), next, message, *sha)
	if err != nil {
		return "", translate("update", path, err)
	}
	if tag.RowsAffected() == 0 {
		return "", conflict(path, fmt.Sprintf("sha %s is not current", *sha))
	}
	return next, nil
}

// Remove deletes path when sha matches
func (s *DocumentStore) Remove(ctx context.Context, path string, sha string, message string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE path = $1 AND sha = $2`, s.tables.Documents)

	tag, err := s.pool.Exec(ctx, query, path, sha)
	if err != nil {
		return translate("delete", path, err)
	}
	if tag.RowsAffected() > 0 {
		s.logger.Debug("document removed", "path", path, "message", message)
		return nil
	}

	if _, err := s.Read(ctx, path); err != nil {
		return err
	}
	return conflict(path, fmt.Sprintf("sha %s is not current", sha))
}

// List returns the direct children of dir
func (s *DocumentStore) List(ctx context.Context, dir string) ([]repositories.Entry, error) {
	prefix := strings.Trim(dir, "/") + "/"
	query := fmt.Sprintf(`
		SELECT path, sha, length(content)
		FROM %s
		WHERE starts_with(path, $1)
		ORDER BY path
	`, s.tables.Documents)

	rows, err := s.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", dir, err)
	}
	defer rows.Close()

	seen := map[string]repositories.Entry{}
	for rows.Next() {
		var (
			path, sha string
			size      int64
		)
		if err := rows.Scan(&path, &sha, &size); err != nil {
			return nil, fmt.Errorf("scan document entry: %w", err)
		}
		name, _, isDir := strings.Cut(strings.TrimPrefix(path, prefix), "/")
		if isDir {
			seen[name] = repositories.Entry{Name: name, Path: prefix + name, Type: "dir"}
			continue
		}
		seen[name] = repositories.Entry{Name: name, Path: path, SHA: sha, Size: size, Type: "file"}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
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

// DropSchema removes the documents table
func (s *DocumentStore) DropSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, s.tables.Documents)); err != nil {
		return fmt.Errorf("drop documents table: %w", err)
	}
	return nil
}

// newSHA hashes content with a random salt so rewriting identical content
// still yields a fresh token
func newSHA(content []byte) string {
	h := sha1.New()
	h.Write([]byte(uuid.NewString()))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func conflict(path, msg string) error {
	return &domain.ConflictError{Message: path + ": " + msg, ResourceType: "document", ResourceID: path}
}
