package services

import (
	"bookora/internal/domain/models"
)

// CreateNotificationRequest describes one notification
type CreateNotificationRequest struct {
	Type      models.NotificationType
	Title     string
	Message   string
	ActionURL string
	ImageURL  string
}

// NotificationService keeps per-user notifications in memory
type NotificationService interface {
	Create(user string, req CreateNotificationRequest) models.Notification
	Broadcast(users []string, req CreateNotificationRequest)

	List(user string) []models.Notification
	UnreadCount(user string) int
	RecentUnread(user string, limit int) []models.Notification

	MarkRead(user, id string) error
	MarkAllRead(user string)
	Delete(user, id string) error
	DeleteAll(user string)

	// Subscribe streams new notifications for user until cancel is called
	Subscribe(user string) (events <-chan models.Notification, cancel func())
}
