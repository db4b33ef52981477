package models

import "time"

type NotificationType string

const (
	NotificationNewBook NotificationType = "new_book"
	NotificationNewPost NotificationType = "new_post"
	NotificationComment NotificationType = "comment"
	NotificationLike    NotificationType = "like"
)

// Notification lives in server memory only
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
	ActionURL string           `json:"actionUrl,omitempty"`
	ImageURL  string           `json:"imageUrl,omitempty"`
}
