// Package jobs runs periodic background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	cron "github.com/robfig/cron"
)

// Job is one unit of scheduled work
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

// Runner executes jobs on their schedules. A job whose previous run is still
// in progress is skipped rather than started twice.
type Runner struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	running mapset.Set[string]
}

// NewRunner creates a runner; each run gets timeout (zero means one minute)
func NewRunner(jobs []Job, timeout time.Duration, logger *slog.Logger) *Runner {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Runner{
		cron:    cron.New(),
		jobs:    jobs,
		timeout: timeout,
		logger:  logger,
		running: mapset.NewThreadUnsafeSet[string](),
	}
}

// Start registers every job and starts the scheduler in its own goroutine
func (r *Runner) Start() error {
	for _, job := range r.jobs {
		job := job
		if err := r.cron.AddFunc(job.Schedule(), func() { r.RunOnce(job) }); err != nil {
			return fmt.Errorf("schedule job %s (%q): %w", job.Name(), job.Schedule(), err)
		}
		r.logger.Info("job scheduled", "job", job.Name(), "schedule", job.Schedule())
	}
	r.cron.Start()
	return nil
}

// RunOnce runs job now unless it is already running. Reports whether it ran.
func (r *Runner) RunOnce(job Job) bool {
	r.mu.Lock()
	if r.running.Contains(job.Name()) {
		r.mu.Unlock()
		r.logger.Warn("job still running, skipping", "job", job.Name())
		return false
	}
	r.running.Add(job.Name())
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running.Remove(job.Name())
		r.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		r.logger.Error("job failed", "job", job.Name(), "error", err, "duration_ms", time.Since(start).Milliseconds())
		return true
	}
	r.logger.Debug("job finished", "job", job.Name(), "duration_ms", time.Since(start).Milliseconds())
	return true
}

// Stop halts the scheduler. Runs already in progress finish on their own.
func (r *Runner) Stop() {
	r.logger.Info("stopping scheduled jobs")
	r.cron.Stop()
}

// FuncJob adapts a function to Job
type FuncJob struct {
	JobName string
	Spec    string
	Fn      func(ctx context.Context) error
}

func (j FuncJob) Name() string                  { return j.JobName }
func (j FuncJob) Schedule() string              { return j.Spec }
func (j FuncJob) Run(ctx context.Context) error { return j.Fn(ctx) }
