package service

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bookora/internal/config"
	"bookora/internal/domain"
	"bookora/internal/domain/models"
	"bookora/internal/domain/services"
)

const subscriberBuffer = 16

type notificationService struct {
	logger *slog.Logger
	now    func() time.Time

	mu          sync.RWMutex
	inbox       map[string][]models.Notification // newest first
	subscribers map[string]map[int]chan models.Notification
	nextSub     int
}

// NewNotificationService creates an in-memory notification center.
// Notifications are not persisted across restarts.
func NewNotificationService(logger *slog.Logger) services.NotificationService {
	return &notificationService{
		logger:      logger,
		now:         time.Now,
		inbox:       make(map[string][]models.Notification),
		subscribers: make(map[string]map[int]chan models.Notification),
	}
}

func (s *notificationService) Create(user string, req services.CreateNotificationRequest) models.Notification {
	user = normalizeEmail(user)
	now := s.now()
	n := models.Notification{
		ID:        prefixedID("notif", now, 9),
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Timestamp: now,
		ActionURL: req.ActionURL,
		ImageURL:  req.ImageURL,
	}

	s.mu.Lock()
	s.inbox[user] = prependCapped(s.inbox[user], n, config.MaxNotifications)
	subs := make([]chan models.Notification, 0, len(s.subscribers[user]))
	for _, ch := range s.subscribers[user] {
		subs = append(subs, ch)
	}
	// deliver under the lock so cancel cannot close a channel mid-send
	for _, ch := range subs {
		select {
		case ch <- n:
		default:
			s.logger.Warn("notification subscriber is behind, dropping event", "user", user, "id", n.ID)
		}
	}
	s.mu.Unlock()

	return n
}

func (s *notificationService) Broadcast(users []string, req services.CreateNotificationRequest) {
	for _, u := range users {
		s.Create(u, req)
	}
	s.logger.Debug("notification broadcast", "type", req.Type, "recipients", len(users))
}

func (s *notificationService) List(user string) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Notification{}, s.inbox[normalizeEmail(user)]...)
}

func (s *notificationService) UnreadCount(user string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.inbox[normalizeEmail(user)] {
		if !n.Read {
			count++
		}
	}
	return count
}

func (s *notificationService) RecentUnread(user string, limit int) []models.Notification {
	if limit <= 0 {
		limit = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Notification{}
	for _, n := range s.inbox[normalizeEmail(user)] {
		if n.Read {
			continue
		}
		out = append(out, n)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (s *notificationService) MarkRead(user, id string) error {
	user = normalizeEmail(user)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.inbox[user] {
		if s.inbox[user][i].ID == id {
			s.inbox[user][i].Read = true
			return nil
		}
	}
	return &domain.NotFoundError{Message: fmt.Sprintf("notification %s not found", id)}
}

func (s *notificationService) MarkAllRead(user string) {
	user = normalizeEmail(user)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.inbox[user] {
		s.inbox[user][i].Read = true
	}
}

func (s *notificationService) Delete(user, id string) error {
	user = normalizeEmail(user)
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.inbox[user]
	for i := range list {
		if list[i].ID == id {
			s.inbox[user] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return &domain.NotFoundError{Message: fmt.Sprintf("notification %s not found", id)}
}

func (s *notificationService) DeleteAll(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inbox, normalizeEmail(user))
}

func (s *notificationService) Subscribe(user string) (<-chan models.Notification, func()) {
	user = normalizeEmail(user)
	ch := make(chan models.Notification, subscriberBuffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	if s.subscribers[user] == nil {
		s.subscribers[user] = make(map[int]chan models.Notification)
	}
	s.subscribers[user][id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers[user], id)
			if len(s.subscribers[user]) == 0 {
				delete(s.subscribers, user)
			}
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
