package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bookora/internal/config"
	"bookora/internal/domain/models"
	"bookora/internal/domain/services"
	"bookora/internal/service/docsync"
)

type activityLogService struct {
	syncer *docsync.Syncer
	path   string
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries []models.ActivityLog
}

// NewActivityLogService creates the service owning activity-log.json
func NewActivityLogService(syncer *docsync.Syncer, paths Paths, logger *slog.Logger) services.ActivityLogService {
	return &activityLogService{
		syncer:  syncer,
		path:    paths.ActivityLog(),
		logger:  logger,
		now:     time.Now,
		entries: []models.ActivityLog{},
	}
}

func emptyLog() []models.ActivityLog { return []models.ActivityLog{} }

func (s *activityLogService) Refresh(ctx context.Context) error {
	entries, err := docsync.Load(ctx, s.syncer, s.path, emptyLog)
	if err != nil {
		s.logger.Warn("failed to load activity log", "path", s.path, "error", err)
		return err
	}
	if entries == nil {
		entries = emptyLog()
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	s.logger.Debug("activity log loaded", "entries", len(entries))
	return nil
}

func (s *activityLogService) Log(ctx context.Context, entry services.LogEntry) error {
	if entry.Actor == "" {
		s.logger.Warn("activity log entry without actor skipped",
			"action", entry.Action,
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
		)
		return nil
	}

	now := s.now()
	record := models.ActivityLog{
		ID:           prefixedID("log", now, 9),
		Timestamp:    now,
		UserEmail:    entry.Actor,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		ResourceName: entry.ResourceName,
		Details:      entry.Details,
	}

	s.mu.Lock()
	s.entries = prependCapped(s.entries, record, config.MaxActivityLogEntries)
	s.mu.Unlock()

	_, err := docsync.Update(ctx, s.syncer, s.path, "Log "+string(record.Action)+" "+string(record.ResourceType), emptyLog,
		func(current *[]models.ActivityLog) error {
			*current = prependCapped(*current, record, config.MaxActivityLogEntries)
			return nil
		})
	if err != nil {
		s.logger.Warn("failed to persist activity log entry", "id", record.ID, "error", err)
		return syncFailed("activity-log", err)
	}
	return nil
}

func (s *activityLogService) List() []models.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ActivityLog{}, s.entries...)
}

func (s *activityLogService) Filter(filter models.ActivityFilter) []models.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.ActivityLog{}
	for _, e := range s.entries {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s *activityLogService) Stats() models.ActivityStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.ActivityStats{Total: len(s.entries)}
	for _, e := range s.entries {
		switch e.Action {
		case models.ActionCreate:
			stats.Creates++
		case models.ActionUpdate:
			stats.Updates++
		case models.ActionDelete:
			stats.Deletes++
		}
	}
	return stats
}

// prependCapped puts item first and drops the oldest entries beyond limit
func prependCapped[T any](list []T, item T, limit int) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, item)
	out = append(out, list...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
