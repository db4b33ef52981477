package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnceSkipsOverlap(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var runs atomic.Int32

	job := FuncJob{JobName: "reload", Spec: "@every 1h", Fn: func(ctx context.Context) error {
		runs.Add(1)
		close(started)
		<-release
		return nil
	}}
	r := NewRunner([]Job{job}, time.Second, testLogger())

	done := make(chan bool)
	go func() { done <- r.RunOnce(job) }()
	<-started

	assert.False(t, r.RunOnce(job), "second run is skipped while the first is in progress")
	close(release)
	assert.True(t, <-done)
	assert.Equal(t, int32(1), runs.Load())
}

func TestRunOnceAfterFailure(t *testing.T) {
	var runs atomic.Int32
	job := FuncJob{JobName: "flaky", Spec: "@every 1h", Fn: func(context.Context) error {
		runs.Add(1)
		return errors.New("store offline")
	}}
	r := NewRunner(nil, 0, testLogger())

	assert.True(t, r.RunOnce(job))
	assert.True(t, r.RunOnce(job), "a failed run releases the guard")
	assert.Equal(t, int32(2), runs.Load())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	r := NewRunner([]Job{FuncJob{JobName: "bad", Spec: "not a schedule", Fn: func(context.Context) error { return nil }}},
		0, testLogger())
	assert.Error(t, r.Start())
}

func TestStartRunsScheduledJob(t *testing.T) {
	var runs atomic.Int32
	r := NewRunner([]Job{FuncJob{JobName: "tick", Spec: "@every 1s", Fn: func(context.Context) error {
		runs.Add(1)
		return nil
	}}}, 0, testLogger())
	require.NoError(t, r.Start())
	defer r.Stop()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
