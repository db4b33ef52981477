package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookora/internal/domain"
)

// randomSuffix returns n lowercase hex characters
func randomSuffix(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func prefixedID(prefix string, t time.Time, suffix int) string {
	return fmt.Sprintf("%s_%d_%s", prefix, millis(t), randomSuffix(suffix))
}

// syncFailed wraps a persistence error that happened after the mirror was
// already updated. Nil stays nil; an existing SyncError is not wrapped twice.
func syncFailed(step string, err error) error {
	if err == nil {
		return nil
	}
	var syncErr *domain.SyncError
	if errors.As(err, &syncErr) {
		return err
	}
	return &domain.SyncError{Step: step, Err: err}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isSyncError(err error) bool {
	var syncErr *domain.SyncError
	return errors.As(err, &syncErr)
}
