package docsync

import (
	"context"
	"log/slog"

	"bookora/internal/domain"
)

// Step is one named write in a multi-document chain
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Saga runs steps in order. The first failure abandons the remaining steps;
// completed steps are not compensated.
type Saga struct {
	name   string
	steps  []Step
	logger *slog.Logger
}

// NewSaga starts an empty chain
func NewSaga(name string, logger *slog.Logger) *Saga {
	return &Saga{name: name, logger: logger}
}

// Step appends a named step
func (s *Saga) Step(name string, run func(ctx context.Context) error) *Saga {
	s.steps = append(s.steps, Step{Name: name, Run: run})
	return s
}

// Run executes the chain, returning a *domain.SyncError naming the failed step
func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Run(ctx); err != nil {
			s.logger.Error("saga step failed",
				"saga", s.name,
				"step", step.Name,
				"completed", i,
				"abandoned", len(s.steps)-i-1,
				"error", err,
			)
			return &domain.SyncError{Step: step.Name, Err: err}
		}
	}
	s.logger.Debug("saga completed", "saga", s.name, "steps", len(s.steps))
	return nil
}
