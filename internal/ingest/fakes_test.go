package ingest

import (
	"context"
	"time"

	"github.com/hendripermana/uiwatch/internal/events"
	"github.com/hendripermana/uiwatch/internal/ratelimit"
)

// FakeLimiter returns a scripted decision and records calls.
type FakeLimiter struct {
	Decision   func(action, identity string) bool
	RetryAfter time.Duration
	Calls      []string
}

func (f *FakeLimiter) Allow(action, identity string, limit int, period time.Duration) ratelimit.Decision {
	f.Calls = append(f.Calls, action+"|"+identity)
	allowed := true
	if f.Decision != nil {
		allowed = f.Decision(action, identity)
	}
	return ratelimit.Decision{Allowed: allowed, RetryAfter: f.RetryAfter}
}

func (f *FakeLimiter) Close() {}

// FakeRecorder persists nothing; it assigns an id and keeps the event.
type FakeRecorder struct {
	RecordErr error
	Recorded  []*events.MonitoringEvent
}

func (f *FakeRecorder) Record(_ context.Context, e *events.MonitoringEvent) (string, error) {
	if f.RecordErr != nil {
		return "", f.RecordErr
	}
	e.EventID = "evt-1"
	e.CreatedAt = time.Now()
	f.Recorded = append(f.Recorded, e)
	return e.EventID, nil
}

// FakeEvaluator returns scripted alert conditions.
type FakeEvaluator struct {
	Conditions []events.AlertCondition
	Evaluated  []*events.MonitoringEvent
}

func (f *FakeEvaluator) EvaluateInline(_ context.Context, e *events.MonitoringEvent) []events.AlertCondition {
	f.Evaluated = append(f.Evaluated, e)
	return f.Conditions
}

// FakeSuppressor suppresses titles found in its set.
type FakeSuppressor struct {
	Suppressed map[string]bool
	Checked    []string
}

func (f *FakeSuppressor) ShouldSuppress(_ context.Context, category events.Category, title string) bool {
	f.Checked = append(f.Checked, string(category)+":"+title)
	return f.Suppressed[title]
}

// FakeEnqueuer records enqueued conditions.
type FakeEnqueuer struct {
	Full     bool
	Enqueued []events.AlertCondition
}

func (f *FakeEnqueuer) Enqueue(cond events.AlertCondition) bool {
	if f.Full {
		return false
	}
	f.Enqueued = append(f.Enqueued, cond)
	return true
}

// FakeMetrics counts increments by name.
type FakeMetrics struct {
	Counts    map[string]int
	Latencies []time.Duration
}

func (f *FakeMetrics) IncrementCustom(name string) {
	if f.Counts == nil {
		f.Counts = make(map[string]int)
	}
	f.Counts[name]++
}

func (f *FakeMetrics) RecordIngestLatency(latency time.Duration) {
	f.Latencies = append(f.Latencies, latency)
}
