package editor

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookora/internal/domain"
	"bookora/internal/domain/models"
)

// State is where a session sits in the autosave cycle
type State string

const (
	StateClean  State = "clean"
	StateDirty  State = "dirty"
	StateSaving State = "saving"
)

// Snapshot is the client view of a session
type Snapshot struct {
	ID          string      `json:"id"`
	BookID      string      `json:"bookId"`
	Book        models.Book `json:"book"`
	CurrentPage int         `json:"currentPage"`
	State       State       `json:"state"`
	LastSaved   *time.Time  `json:"lastSaved,omitempty"`
	LastError   string      `json:"lastError,omitempty"`
}

// session holds one user's working copy of a book.
// revision counts mutations; a save only marks the session clean when no
// mutation happened while it was in flight. saveMu serializes saves.
type session struct {
	mu     sync.Mutex
	saveMu sync.Mutex

	id      string
	owner   string
	book    models.Book
	current int
	state   State

	revision  uint64
	timer     *time.Timer
	lastSaved  time.Time
	lastError  error
	lastAccess time.Time
	closed     bool
}

func newSession(owner string, book models.Book, now time.Time) *session {
	book.Normalize()
	return &session{
		id:         uuid.NewString(),
		owner:      owner,
		book:       book,
		state:      StateClean,
		lastAccess: now,
	}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// snapshot must be called with mu held
func (s *session) snapshot() *Snapshot {
	snap := &Snapshot{
		ID:          s.id,
		BookID:      s.book.ID,
		Book:        s.book.Clone(),
		CurrentPage: s.current,
		State:       s.state,
	}
	if !s.lastSaved.IsZero() {
		t := s.lastSaved
		snap.LastSaved = &t
	}
	if s.lastError != nil {
		snap.LastError = s.lastError.Error()
	}
	return snap
}

func (s *session) currentPage() (*models.Page, error) {
	if len(s.book.Pages) == 0 {
		return nil, &domain.ValidationError{Message: "book has no pages"}
	}
	return &s.book.Pages[s.current], nil
}

func (s *session) addPage() {
	s.book.Pages = append(s.book.Pages, models.Page{ID: shortID(), Content: []models.Block{}})
	s.book.RenumberPages()
	s.book.PageCount = len(s.book.Pages)
	s.current = len(s.book.Pages) - 1
}

func (s *session) deletePage(index int) error {
	if index < 0 || index >= len(s.book.Pages) {
		return &domain.ValidationError{Message: fmt.Sprintf("page index %d out of range", index)}
	}
	s.book.Pages = append(s.book.Pages[:index:index], s.book.Pages[index+1:]...)
	s.book.RenumberPages()
	s.book.PageCount = len(s.book.Pages)
	if s.current >= index && s.current > 0 {
		s.current--
	}
	return nil
}

func (s *session) selectPage(index int) error {
	if index < 0 || index >= len(s.book.Pages) {
		return &domain.ValidationError{Message: fmt.Sprintf("page index %d out of range", index)}
	}
	s.current = index
	return nil
}

func (s *session) addBlock(t models.BlockType) (models.Block, error) {
	if !t.Valid() {
		return models.Block{}, &domain.ValidationError{Message: fmt.Sprintf("unsupported block type %q", t)}
	}
	page, err := s.currentPage()
	if err != nil {
		return models.Block{}, err
	}
	block := models.Block{ID: shortID(), Type: t, Content: ""}
	page.Content = append(page.Content, block)
	return block, nil
}

func (s *session) updateBlock(blockID, content string) error {
	page, err := s.currentPage()
	if err != nil {
		return err
	}
	for i := range page.Content {
		if page.Content[i].ID == blockID {
			page.Content[i].Content = content
			return nil
		}
	}
	return &domain.NotFoundError{Message: fmt.Sprintf("block %s not found on page %d", blockID, s.current+1)}
}

func (s *session) deleteBlock(blockID string) error {
	page, err := s.currentPage()
	if err != nil {
		return err
	}
	for i := range page.Content {
		if page.Content[i].ID == blockID {
			page.Content = append(page.Content[:i:i], page.Content[i+1:]...)
			return nil
		}
	}
	return &domain.NotFoundError{Message: fmt.Sprintf("block %s not found on page %d", blockID, s.current+1)}
}
