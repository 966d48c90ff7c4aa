// Package scheduler runs the periodic alert scan on a fixed interval,
// independent of ingestion volume. Low-and-slow patterns that never trip an
// inline rule still surface here.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/hendripermana/uiwatch/internal/events"
)

// DefaultInterval is the default time between scans.
const DefaultInterval = 15 * time.Minute

// PeriodicEvaluator runs the trailing-window rules. Satisfied by the
// evaluator.
type PeriodicEvaluator interface {
	EvaluatePeriodic(ctx context.Context) []events.AlertCondition
}

// ConditionRaiser throttles and dispatches alert conditions. Satisfied by the
// ingest pipeline.
type ConditionRaiser interface {
	Raise(ctx context.Context, cond events.AlertCondition)
}

// Recorder counts scan outcomes.
type Recorder interface {
	IncrementCustom(name string)
}

// Scheduler triggers periodic scans.
type Scheduler struct {
	evaluator PeriodicEvaluator
	raiser    ConditionRaiser
	metrics   Recorder
	interval  time.Duration
}

// New creates a scheduler. A non-positive interval falls back to the default;
// the metrics recorder may be nil.
func New(evaluator PeriodicEvaluator, raiser ConditionRaiser, metrics Recorder, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		evaluator: evaluator,
		raiser:    raiser,
		metrics:   metrics,
		interval:  interval,
	}
}

// Run scans on the configured interval until the context is cancelled. The
// first scan waits one full interval so startup is not a thundering herd of
// store queries.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("Periodic alert scan started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Periodic alert scan stopped")
			return
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}

// Scan runs one evaluation cycle. A cycle that produces nothing is normal;
// rule failures are contained inside the evaluator, so a degraded store
// costs one cycle, never the scheduler.
func (s *Scheduler) Scan(ctx context.Context) {
	start := time.Now()
	conditions := s.evaluator.EvaluatePeriodic(ctx)

	for _, cond := range conditions {
		s.count("alerts_evaluated")
		s.raiser.Raise(ctx, cond)
	}
	s.count("periodic_scans")

	slog.Debug("Periodic scan complete",
		"conditions", len(conditions),
		"elapsed", time.Since(start),
	)
}

func (s *Scheduler) count(name string) {
	if s.metrics != nil {
		s.metrics.IncrementCustom(name)
	}
}
