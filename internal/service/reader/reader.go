// Package reader paginates a fully fetched book for display. Moving forward
// plays a short page-flip; input during the flip is ignored.
package reader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookora/internal/domain"
	"bookora/internal/domain/models"
)

// DefaultFlipDuration is how long a forward page turn takes
const DefaultFlipDuration = 300 * time.Millisecond

// BookSource is the part of the book service a reader needs
type BookSource interface {
	FetchDetails(ctx context.Context, id string) (*models.Book, error)
	RecordView(ctx context.Context, id string) (*models.Book, error)
}

// Snapshot is what a client renders
type Snapshot struct {
	ID       string       `json:"id"`
	BookID   string       `json:"bookId"`
	Title    string       `json:"title"`
	Index    int          `json:"index"`
	Total    int          `json:"total"`
	Flipping bool         `json:"flipping"`
	Progress float64      `json:"progress"`
	Views    int          `json:"views"`
	Page     *models.Page `json:"page,omitempty"`
}

type session struct {
	mu         sync.Mutex
	id         string
	book       models.Book
	index      int
	flipping   bool
	timer      *time.Timer
	lastAccess time.Time
}

func (s *session) total() int { return len(s.book.Pages) }

// snapshot must be called with mu held
func (s *session) snapshot() *Snapshot {
	snap := &Snapshot{
		ID:       s.id,
		BookID:   s.book.ID,
		Title:    s.book.Title,
		Index:    s.index,
		Total:    s.total(),
		Flipping: s.flipping,
		Progress: Progress(s.index, s.total()),
		Views:    s.book.ViewCount,
	}
	if s.total() > 0 {
		page := s.book.Pages[s.index]
		page.Content = append([]models.Block{}, page.Content...)
		snap.Page = &page
	}
	return snap
}

// Progress is (index+1)/total, zero for an empty book
func Progress(index, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(index+1) / float64(total)
}

// Clamp bounds index to [0, total-1]
func Clamp(index, total int) int {
	if total == 0 || index < 0 {
		return 0
	}
	if index > total-1 {
		return total - 1
	}
	return index
}

// Manager tracks open reader sessions
type Manager struct {
	books  BookSource
	flip   time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewManager creates a reader manager; flip <= 0 uses DefaultFlipDuration
func NewManager(books BookSource, flip time.Duration, logger *slog.Logger) *Manager {
	if flip <= 0 {
		flip = DefaultFlipDuration
	}
	return &Manager{
		books:    books,
		flip:     flip,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Open fetches the full book, counts a view and starts at the first page
func (m *Manager) Open(ctx context.Context, bookID string) (*Snapshot, error) {
	book, err := m.books.FetchDetails(ctx, bookID)
	if err != nil {
		return nil, err
	}
	viewed, err := m.books.RecordView(ctx, bookID)
	if err != nil {
		m.logger.Warn("view not recorded", "book_id", bookID, "error", err)
	}

	s := &session{id: uuid.NewString(), book: book.Clone(), lastAccess: m.now()}
	if viewed != nil {
		s.book.ViewCount = viewed.ViewCount
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

func (m *Manager) lookup(id string) (*session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("reader session %s not found", id)}
	}
	return s, nil
}

// acquire looks the session up and returns it locked, marking the access
func (m *Manager) acquire(id string) (*session, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.lastAccess = m.now()
	return s, nil
}

// Get returns the session state
func (m *Manager) Get(id string) (*Snapshot, error) {
	s, err := m.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// Next starts a flip when a next page exists. The index advances when the
// flip window ends, after re-checking the bound.
func (m *Manager) Next(id string) (*Snapshot, error) {
	s, err := m.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if s.flipping || s.index >= s.total()-1 {
		return s.snapshot(), nil
	}
	s.flipping = true
	s.timer = time.AfterFunc(m.flip, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.index < s.total()-1 {
			s.index++
		}
		s.flipping = false
		s.timer = nil
	})
	return s.snapshot(), nil
}

// Prev moves back one page immediately
func (m *Manager) Prev(id string) (*Snapshot, error) {
	s, err := m.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if !s.flipping && s.index > 0 {
		s.index--
	}
	return s.snapshot(), nil
}

// GoTo jumps to a 0-based page index, clamped into range
func (m *Manager) GoTo(id string, index int) (*Snapshot, error) {
	s, err := m.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if !s.flipping {
		s.index = Clamp(index, s.total())
	}
	return s.snapshot(), nil
}

// Close drops the session, cancelling any flip in progress
func (m *Manager) Close(id string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	m.drop(s)
	return nil
}

func (m *Manager) drop(s *session) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	m.mu.Lock()
	delete(m.sessions, s.id)
	m.mu.Unlock()
}

// SessionCount reports how many sessions are open
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Expire drops sessions untouched for longer than idle and returns how many
func (m *Manager) Expire(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	m.mu.RLock()
	var stale []*session
	for _, s := range m.sessions {
		s.mu.Lock()
		if s.lastAccess.Before(cutoff) {
			stale = append(stale, s)
		}
		s.mu.Unlock()
	}
	m.mu.RUnlock()

	for _, s := range stale {
		m.drop(s)
	}
	if len(stale) > 0 {
		m.logger.Info("idle reader sessions expired", "count", len(stale))
	}
	return len(stale)
}
