// Package editor keeps in-progress book edits in memory and autosaves them
// after a quiet period.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bookora/internal/domain"
	"bookora/internal/domain/models"
	"bookora/internal/domain/services"
)

// BookStore is the part of the book service an editor needs
type BookStore interface {
	FetchDetails(ctx context.Context, id string) (*models.Book, error)
	Update(ctx context.Context, actor string, book *models.Book) (*models.Book, error)
}

const saveTimeout = 30 * time.Second

// Manager owns every open editor session
type Manager struct {
	books      BookStore
	authorizer services.ResourceAuthorizer
	delay      time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewManager creates an editor manager that autosaves delay after the last edit
func NewManager(books BookStore, authorizer services.ResourceAuthorizer, delay time.Duration, logger *slog.Logger) *Manager {
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &Manager{
		books:      books,
		authorizer: authorizer,
		delay:      delay,
		logger:     logger,
		now:        time.Now,
		sessions:   make(map[string]*session),
	}
}

// Open loads the full book into a new clean session
func (m *Manager) Open(ctx context.Context, owner, bookID string) (*Snapshot, error) {
	if m.authorizer != nil {
		if err := m.authorizer.CanEditBook(ctx, owner, bookID); err != nil {
			return nil, err
		}
	}
	book, err := m.books.FetchDetails(ctx, bookID)
	if err != nil {
		return nil, err
	}

	s := newSession(owner, *book, m.now())
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("editor session opened", "session_id", s.id, "book_id", bookID, "owner", owner)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

func (m *Manager) lookup(id, owner string) (*session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("editor session %s not found", id)}
	}
	if s.owner != owner {
		return nil, fmt.Errorf("editor session %s: %w", id, domain.ErrForbidden)
	}
	return s, nil
}

// Get returns the current state of a session
func (m *Manager) Get(id, owner string) (*Snapshot, error) {
	return m.touch(id, owner, func(*session) error { return nil })
}

// SessionCount reports how many sessions are open
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// mutate applies fn, marks the session dirty and replaces any pending autosave
func (m *Manager) mutate(id, owner string, fn func(*session) error) (*Snapshot, error) {
	return m.touch(id, owner, func(s *session) error {
		if err := fn(s); err != nil {
			return err
		}
		s.revision++
		s.state = StateDirty
		m.schedule(s)
		return nil
	})
}

// touch runs fn on an open session with s.mu held and records the access
func (m *Manager) touch(id, owner string, fn func(*session) error) (*Snapshot, error) {
	s, err := m.lookup(id, owner)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("editor session %s not found", id)}
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.lastAccess = m.now()
	return s.snapshot(), nil
}

// schedule must be called with s.mu held
func (m *Manager) schedule(s *session) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(m.delay, func() { m.autosave(s) })
}

func (m *Manager) AddPage(id, owner string) (*Snapshot, error) {
	return m.mutate(id, owner, func(s *session) error {
		s.addPage()
		return nil
	})
}

func (m *Manager) DeletePage(id, owner string, index int) (*Snapshot, error) {
	return m.mutate(id, owner, func(s *session) error { return s.deletePage(index) })
}

// SelectPage moves the cursor. The book is unchanged, so the state and any
// pending autosave are left alone.
func (m *Manager) SelectPage(id, owner string, index int) (*Snapshot, error) {
	return m.touch(id, owner, func(s *session) error { return s.selectPage(index) })
}

func (m *Manager) AddBlock(id, owner string, t models.BlockType) (*Snapshot, error) {
	return m.mutate(id, owner, func(s *session) error {
		_, err := s.addBlock(t)
		return err
	})
}

func (m *Manager) UpdateBlock(id, owner, blockID, content string) (*Snapshot, error) {
	return m.mutate(id, owner, func(s *session) error { return s.updateBlock(blockID, content) })
}

func (m *Manager) DeleteBlock(id, owner, blockID string) (*Snapshot, error) {
	return m.mutate(id, owner, func(s *session) error { return s.deleteBlock(blockID) })
}

func (m *Manager) autosave(s *session) {
	// wait out a save already in flight
	if !s.saveMu.TryLock() {
		s.mu.Lock()
		if !s.closed {
			m.schedule(s)
		}
		s.mu.Unlock()
		return
	}
	defer s.saveMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := m.saveLocked(ctx, s); err != nil {
		m.logger.Warn("autosave failed", "session_id", s.id, "error", err)
	}
}

// save persists the working copy if it is dirty, waiting for any save in
// flight. A failed save leaves the session dirty with lastError set.
func (m *Manager) save(ctx context.Context, s *session) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return m.saveLocked(ctx, s)
}

// saveLocked must be called with s.saveMu held. Edits made while the update
// runs leave the session dirty with a fresh autosave scheduled.
func (m *Manager) saveLocked(ctx context.Context, s *session) error {
	s.mu.Lock()
	if s.state != StateDirty {
		s.mu.Unlock()
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	book := s.book.Clone()
	rev := s.revision
	s.state = StateSaving
	s.mu.Unlock()

	m.logger.Debug("saving editor session", "session_id", s.id, "book_id", book.ID, "revision", rev)
	saved, err := m.books.Update(ctx, s.owner, &book)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err
		s.state = StateDirty
		return err
	}

	s.lastError = nil
	s.lastSaved = m.now()
	if s.revision == rev {
		s.book = saved.Clone()
		s.state = StateClean
		return nil
	}
	s.state = StateDirty
	if !s.closed {
		m.schedule(s)
	}
	return nil
}

// Save flushes the session now instead of waiting for the autosave
func (m *Manager) Save(ctx context.Context, id, owner string) (*Snapshot, error) {
	s, err := m.lookup(id, owner)
	if err != nil {
		return nil, err
	}
	saveErr := m.save(ctx, s)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = m.now()
	return s.snapshot(), saveErr
}

// Close cancels the pending autosave, flushes unsaved edits and drops the session
func (m *Manager) Close(ctx context.Context, id, owner string) error {
	s, err := m.lookup(id, owner)
	if err != nil {
		return err
	}

	saveErr := m.save(ctx, s)

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.closed = true
	s.mu.Unlock()

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	m.logger.Info("editor session closed", "session_id", id, "error", saveErr)
	return saveErr
}

// Expire flushes and closes sessions untouched for longer than idle.
// It returns how many were closed.
func (m *Manager) Expire(ctx context.Context, idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	m.mu.RLock()
	stale := make([]*session, 0)
	for _, s := range m.sessions {
		s.mu.Lock()
		if s.lastAccess.Before(cutoff) {
			stale = append(stale, s)
		}
		s.mu.Unlock()
	}
	m.mu.RUnlock()

	for _, s := range stale {
		if err := m.Close(ctx, s.id, s.owner); err != nil {
			m.logger.Warn("idle editor session closed unsaved", "session_id", s.id, "error", err)
		}
	}
	if len(stale) > 0 {
		m.logger.Info("idle editor sessions expired", "count", len(stale))
	}
	return len(stale)
}

// Shutdown flushes and closes every session
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.RLock()
	all := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	for _, s := range all {
		if err := m.Close(ctx, s.id, s.owner); err != nil {
			m.logger.Warn("unsaved editor session at shutdown", "session_id", s.id, "error", err)
		}
	}
}
