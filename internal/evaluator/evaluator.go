// Package evaluator turns raw monitoring events into alert conditions using
// declarative threshold rules.
//
// Two invocation modes exist: inline evaluation runs immediately after a
// single event is recorded and checks only rules relevant to that event's
// kind; periodic evaluation scans a trailing window across all rule types on
// a fixed schedule, independent of ingestion volume.
package evaluator

import (
	"context"
	"log/slog"
	"time"

	"github.com/hendripermana/uiwatch/internal/events"
)

// EventQuerier is the slice of the event store the evaluator needs.
type EventQuerier interface {
	CountMatching(ctx context.Context, kind events.Kind, fieldPath, fieldValue string, since time.Time) (int, error)
	GroupAverage(ctx context.Context, kind events.Kind, groupPath, valuePath string, since time.Time) (map[string]float64, error)
	GroupCount(ctx context.Context, kind events.Kind, groupPath string, since time.Time) (map[string]int, error)
	ListMatching(ctx context.Context, kind events.Kind, fieldPath, fieldValue string, since time.Time, limit int) ([]events.MonitoringEvent, error)
}

// Rules holds the threshold configuration. Zero values are replaced by the
// defaults from DefaultRules.
//
// Count thresholds compare with >=, duration thresholds with strict >.
type Rules struct {
	// RepeatedErrorThreshold fires when at least this many ui_error events
	// share an error_type within RepeatedErrorWindow.
	RepeatedErrorThreshold int
	// RepeatedErrorWindow is a fixed trailing window from evaluation time,
	// not a clock-aligned bucket.
	RepeatedErrorWindow time.Duration
	// ThemeSwitchSlowMs fires inline when a single theme_switch_duration
	// sample strictly exceeds it.
	ThemeSwitchSlowMs float64
	// ThemeSwitchAvgMs fires periodically when the trailing average of
	// theme_switch_duration strictly exceeds it.
	ThemeSwitchAvgMs float64
	// ScanWindow is the trailing window for periodic rules.
	ScanWindow time.Duration
	// AccessibilityListLimit caps how many feedback items one alert lists.
	AccessibilityListLimit int
}

// DefaultRules returns the standard thresholds.
func DefaultRules() Rules {
	return Rules{
		RepeatedErrorThreshold: 3,
		RepeatedErrorWindow:    time.Hour,
		ThemeSwitchSlowMs:      2000,
		ThemeSwitchAvgMs:       300,
		ScanWindow:             24 * time.Hour,
		AccessibilityListLimit: 50,
	}
}

// withDefaults fills zero fields from DefaultRules.
func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r.RepeatedErrorThreshold <= 0 {
		r.RepeatedErrorThreshold = d.RepeatedErrorThreshold
	}
	if r.RepeatedErrorWindow <= 0 {
		r.RepeatedErrorWindow = d.RepeatedErrorWindow
	}
	if r.ThemeSwitchSlowMs <= 0 {
		r.ThemeSwitchSlowMs = d.ThemeSwitchSlowMs
	}
	if r.ThemeSwitchAvgMs <= 0 {
		r.ThemeSwitchAvgMs = d.ThemeSwitchAvgMs
	}
	if r.ScanWindow <= 0 {
		r.ScanWindow = d.ScanWindow
	}
	if r.AccessibilityListLimit <= 0 {
		r.AccessibilityListLimit = d.AccessibilityListLimit
	}
	return r
}

// Evaluator inspects events against threshold rules.
type Evaluator struct {
	querier EventQuerier
	rules   Rules
	now     func() time.Time
}

// New creates an evaluator over the given event querier.
func New(querier EventQuerier, rules Rules) *Evaluator {
	return &Evaluator{
		querier: querier,
		rules:   rules.withDefaults(),
		now:     time.Now,
	}
}

// EvaluateInline checks the rules relevant to a single freshly-recorded
// event. A failing rule is logged and skipped; remaining rules still run.
func (e *Evaluator) EvaluateInline(ctx context.Context, event *events.MonitoringEvent) []events.AlertCondition {
	if event == nil {
		return nil
	}

	var conditions []events.AlertCondition
	switch event.Kind {
	case events.KindUIError:
		if cond, err := e.checkRepeatedError(ctx, event); err != nil {
			slog.Error("Repeated error rule failed", "event_id", event.EventID, "error", err)
		} else if cond != nil {
			conditions = append(conditions, *cond)
		}
	case events.KindPerformanceMetric:
		if cond := e.checkSlowMetric(event); cond != nil {
			conditions = append(conditions, *cond)
		}
	}
	return conditions
}

// EvaluatePeriodic scans the trailing window across all rule types. Intended
// to run on a fixed schedule. A failing rule is logged and skipped; the scan
// is cancellable between rules.
func (e *Evaluator) EvaluatePeriodic(ctx context.Context) []events.AlertCondition {
	since := e.now().Add(-e.rules.ScanWindow)

	checks := []struct {
		name string
		run  func(context.Context, time.Time) (*events.AlertCondition, error)
	}{
		{"theme_switch_average", e.checkThemeSwitchAverage},
		{"component_error_volume", e.checkComponentErrorVolume},
		{"accessibility_issues", e.checkAccessibilityIssues},
		{"performance_regressions", e.checkPerformanceRegressions},
	}

	var conditions []events.AlertCondition
	for _, check := range checks {
		if ctx.Err() != nil {
			slog.Info("Periodic evaluation cancelled", "pending_rule", check.name)
			return conditions
		}
		cond, err := check.run(ctx, since)
		if err != nil {
			slog.Error("Periodic rule failed", "rule", check.name, "error", err)
			continue
		}
		if cond != nil {
			conditions = append(conditions, *cond)
		}
	}
	return conditions
}
