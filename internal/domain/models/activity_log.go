package models

import "time"

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type ResourceType string

const (
	ResourceBook ResourceType = "book"
	ResourceFeed ResourceType = "feed"
	ResourcePage ResourceType = "page"
	ResourceUser ResourceType = "user"
)

// ActivityLog is one append-only entry in activity-log.json (newest first)
type ActivityLog struct {
	ID           string       `json:"id"`
	Timestamp    time.Time    `json:"timestamp"`
	UserEmail    string       `json:"userEmail"`
	Action       Action       `json:"action"`
	ResourceType ResourceType `json:"resourceType"`
	ResourceID   string       `json:"resourceId,omitempty"`
	ResourceName string       `json:"resourceName,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// ActivityFilter selects log entries; zero fields match everything
type ActivityFilter struct {
	UserEmail    string
	Action       Action
	ResourceType ResourceType
	Start        *time.Time
	End          *time.Time
}

// Matches reports whether entry satisfies every set field of the filter
func (f ActivityFilter) Matches(entry ActivityLog) bool {
	if f.UserEmail != "" && entry.UserEmail != f.UserEmail {
		return false
	}
	if f.Action != "" && entry.Action != f.Action {
		return false
	}
	if f.ResourceType != "" && entry.ResourceType != f.ResourceType {
		return false
	}
	if f.Start != nil && entry.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && entry.Timestamp.After(*f.End) {
		return false
	}
	return true
}

// ActivityStats counts entries by action
type ActivityStats struct {
	Total   int `json:"total"`
	Creates int `json:"creates"`
	Updates int `json:"updates"`
	Deletes int `json:"deletes"`
}
