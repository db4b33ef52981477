// Package docsync implements read-modify-write against a versioned document
// store. Each write carries the sha read immediately before it, and a
// conflicting write is re-read and retried once.
package docsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"bookora/internal/domain"
	"bookora/internal/domain/repositories"
	"bookora/internal/repository/codec"
)

// Syncer wraps a DocumentStore with the retry policy
type Syncer struct {
	store      repositories.DocumentStore
	logger     *slog.Logger
	retryDelay time.Duration
	maxRetries uint64
}

// Option configures a Syncer
type Option func(*Syncer)

// WithRetryDelay sets the pause before the conflict retry
func WithRetryDelay(d time.Duration) Option {
	return func(s *Syncer) { s.retryDelay = d }
}

// WithMaxRetries sets how many times a conflicting write is re-attempted
func WithMaxRetries(n uint64) Option {
	return func(s *Syncer) { s.maxRetries = n }
}

// NewSyncer creates a Syncer that retries a conflicting write once
func NewSyncer(store repositories.DocumentStore, logger *slog.Logger, opts ...Option) *Syncer {
	s := &Syncer{
		store:      store,
		logger:     logger,
		retryDelay: 100 * time.Millisecond,
		maxRetries: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying document store
func (s *Syncer) Store() repositories.DocumentStore {
	return s.store
}

func (s *Syncer) policy(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryDelay), s.maxRetries), ctx)
}

// retryOnConflict runs op, repeating it only when it fails with ErrConflict
func (s *Syncer) retryOnConflict(ctx context.Context, path string, op func() error) error {
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Warn("version conflict, re-fetching", "path", path, "attempt", attempt)
			return err
		}
		return backoff.Permanent(err)
	}, s.policy(ctx))
}

// Fetch reads and decodes path. Returns domain.ErrNotFound when absent.
func Fetch[T any](ctx context.Context, s *Syncer, path string) (T, string, error) {
	var value T
	doc, err := s.store.Read(ctx, path)
	if err != nil {
		return value, "", err
	}
	if err := codec.Unmarshal(path, doc.Content, &value); err != nil {
		return value, "", err
	}
	return value, doc.SHA, nil
}

// Load reads path, creating it from def when it does not exist. A failed create
// still returns def so callers can run on an empty mirror.
func Load[T any](ctx context.Context, s *Syncer, path string, def func() T) (T, error) {
	value, _, err := Fetch[T](ctx, s, path)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return def(), err
	}

	value = def()
	if _, werr := s.store.Write(ctx, path, value, nil, fmt.Sprintf("Initialize %s", path)); werr != nil {
		s.logger.Warn("could not create default document", "path", path, "error", werr)
	}
	return value, nil
}

// Update applies mutate to the freshly read document (or to def() when the
// document does not exist yet) and writes it back with the sha it was read at.
// On a version conflict the read and mutate are redone.
func Update[T any](ctx context.Context, s *Syncer, path, message string, def func() T, mutate func(*T) error) (T, error) {
	var result T
	err := s.retryOnConflict(ctx, path, func() error {
		current, sha, err := Fetch[T](ctx, s, path)
		var shaPtr *string
		switch {
		case err == nil:
			shaPtr = &sha
		case errors.Is(err, domain.ErrNotFound):
			current = def()
		default:
			return err
		}

		if err := mutate(&current); err != nil {
			return err
		}
		if _, err := s.store.Write(ctx, path, current, shaPtr, message); err != nil {
			return err
		}
		result = current
		return nil
	})
	return result, err
}

// Put replaces the document with value, whatever its current content
func Put[T any](ctx context.Context, s *Syncer, path, message string, value T) error {
	_, err := Update(ctx, s, path, message, func() T { return value }, func(current *T) error {
		*current = value
		return nil
	})
	return err
}

// Create writes value only if path does not exist yet
func Create[T any](ctx context.Context, s *Syncer, path, message string, value T) error {
	_, err := s.store.Write(ctx, path, value, nil, message)
	return err
}

// Delete removes path if it exists. A missing document is not an error.
func (s *Syncer) Delete(ctx context.Context, path, message string) error {
	return s.retryOnConflict(ctx, path, func() error {
		doc, err := s.store.Read(ctx, path)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		err = s.store.Remove(ctx, path, doc.SHA, message)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	})
}
