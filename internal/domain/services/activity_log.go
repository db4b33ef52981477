package services

import (
	"context"

	"bookora/internal/domain/models"
)

// LogEntry is what callers hand to ActivityLogService.Log
type LogEntry struct {
	Actor        string
	Action       models.Action
	ResourceType models.ResourceType
	ResourceID   string
	ResourceName string
	Details      map[string]any
}

// ActivityLogService owns activity-log.json
type ActivityLogService interface {
	Refresh(ctx context.Context) error

	// Log records an entry; an entry without an actor is dropped with a warning
	Log(ctx context.Context, entry LogEntry) error

	List() []models.ActivityLog
	Filter(filter models.ActivityFilter) []models.ActivityLog
	Stats() models.ActivityStats
}
