// Package ingest orchestrates the event pipeline: rate limiting, durable
// recording, inline alert evaluation, throttling, and dispatch.
//
// Only failures up to and including the durable write surface to the caller.
// Everything downstream of the write (evaluation, throttling, dispatch) is
// best-effort: the event is already recorded, so those failures are logged
// and contained.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hendripermana/uiwatch/internal/events"
	"github.com/hendripermana/uiwatch/internal/ratelimit"
	"github.com/hendripermana/uiwatch/internal/store"
)

// ErrRateLimited is returned when the caller exceeded an action's rate limit.
// Use AsRateLimited to recover the retry-after hint.
var ErrRateLimited = errors.New("rate limit exceeded")

// ErrInvalidEvent is returned for events that fail validation before any
// pipeline stage runs.
var ErrInvalidEvent = store.ErrInvalidEvent

// RateLimitedError carries the retry-after hint for a rejected submission.
type RateLimitedError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Action, e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

// AsRateLimited extracts the rate-limit detail from an ingestion error.
func AsRateLimited(err error) (*RateLimitedError, bool) {
	var rle *RateLimitedError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// EventRecorder persists monitoring events. Satisfied by the event store,
// which fills in the event's assigned id and timestamp.
type EventRecorder interface {
	Record(ctx context.Context, e *events.MonitoringEvent) (string, error)
}

// InlineEvaluator checks a just-recorded event against the per-event alert
// rules. Satisfied by the evaluator.
type InlineEvaluator interface {
	EvaluateInline(ctx context.Context, e *events.MonitoringEvent) []events.AlertCondition
}

// Suppressor decides whether an alert is inside its cooldown window.
// Satisfied by the throttle.
type Suppressor interface {
	ShouldSuppress(ctx context.Context, category events.Category, title string) bool
}

// Enqueuer hands alert conditions to the dispatcher.
type Enqueuer interface {
	Enqueue(cond events.AlertCondition) bool
}

// Recorder counts pipeline outcomes and tracks ingest latency. Satisfied by
// the metrics collector.
type Recorder interface {
	IncrementCustom(name string)
	RecordIngestLatency(latency time.Duration)
}

// Pipeline runs events through the full ingestion sequence.
type Pipeline struct {
	limiter    ratelimit.Limiter
	rules      ratelimit.Rules
	recorder   EventRecorder
	evaluator  InlineEvaluator
	suppressor Suppressor
	dispatcher Enqueuer
	metrics    Recorder
}

// New creates an ingestion pipeline. The evaluator, suppressor, dispatcher,
// and metrics recorder may be nil; the corresponding stage is skipped.
func New(limiter ratelimit.Limiter, rules ratelimit.Rules, recorder EventRecorder, evaluator InlineEvaluator, suppressor Suppressor, dispatcher Enqueuer, metrics Recorder) *Pipeline {
	if rules == nil {
		rules = ratelimit.DefaultRules()
	}
	return &Pipeline{
		limiter:    limiter,
		rules:      rules,
		recorder:   recorder,
		evaluator:  evaluator,
		suppressor: suppressor,
		dispatcher: dispatcher,
		metrics:    metrics,
	}
}

// Submit runs one event through the pipeline. The action names the rate-limit
// rule ("record_event" or "submit_feedback"); identity comes from the event's
// user id or anonymized address.
//
// On success the event carries its assigned id and timestamp. Error cases:
// validation failure, rate limit (*RateLimitedError), and store failure.
// Alert-path failures never surface here.
func (p *Pipeline) Submit(ctx context.Context, action string, e *events.MonitoringEvent) (string, error) {
	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.RecordIngestLatency(time.Since(start))
		}
	}()
	p.count("events_received")

	if e == nil || e.Kind == "" {
		return "", ErrInvalidEvent
	}

	if err := p.checkRateLimit(ctx, action, e); err != nil {
		return "", err
	}

	eventID, err := p.recorder.Record(ctx, e)
	if err != nil {
		return "", fmt.Errorf("failed to record event: %w", err)
	}
	p.count("events_recorded")

	p.evaluate(ctx, e)
	return eventID, nil
}

// checkRateLimit applies the named rule, if one exists. Actions without a
// rule are unlimited.
func (p *Pipeline) checkRateLimit(_ context.Context, action string, e *events.MonitoringEvent) error {
	rule, ok := p.rules[action]
	if !ok || p.limiter == nil {
		return nil
	}

	identity := ratelimit.Identity(e.UserID, e.Addr)
	decision := p.limiter.Allow(action, identity, rule.Limit, rule.Period)
	if decision.Allowed {
		return nil
	}

	slog.Warn("Rate limit exceeded",
		"action", action,
		"identity", identity,
		"count", decision.Count,
		"retry_after", decision.RetryAfter,
	)
	p.count("events_rate_limited")
	return &RateLimitedError{Action: action, RetryAfter: decision.RetryAfter}
}

// evaluate runs the inline alert rules and dispatches whatever survives the
// throttle. The event is already durable; nothing here may fail the caller.
func (p *Pipeline) evaluate(ctx context.Context, e *events.MonitoringEvent) {
	if p.evaluator == nil {
		return
	}

	conditions := p.evaluator.EvaluateInline(ctx, e)
	for _, cond := range conditions {
		p.count("alerts_evaluated")
		p.Raise(ctx, cond)
	}
}

// Raise throttles and dispatches a single alert condition. Shared with the
// periodic scan, which produces conditions outside the ingestion path.
func (p *Pipeline) Raise(ctx context.Context, cond events.AlertCondition) {
	if p.suppressor != nil && p.suppressor.ShouldSuppress(ctx, cond.Category, cond.Title) {
		slog.Debug("Alert suppressed by throttle",
			"category", cond.Category,
			"title", cond.Title,
		)
		p.count("alerts_suppressed")
		return
	}
	if p.dispatcher != nil {
		p.dispatcher.Enqueue(cond)
	}
}

func (p *Pipeline) count(name string) {
	if p.metrics != nil {
		p.metrics.IncrementCustom(name)
	}
}
