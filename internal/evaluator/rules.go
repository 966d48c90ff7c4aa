package evaluator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hendripermana/uiwatch/internal/events"
)

// Payload fields the rules read.
const (
	fieldErrorType  = "error_type"
	fieldMetricName = "metric_name"
	fieldValue      = "value"
	fieldComponent  = "component"
	fieldCategory   = "category"
	fieldIssueType  = "issue_type"

	metricThemeSwitch     = "theme_switch_duration"
	categoryAccessibility = "accessibility"
)

// checkRepeatedError fires when the same error_type occurred at least the
// configured number of times within the trailing window. The window trails
// from evaluation time; the just-recorded event is included in the count.
func (e *Evaluator) checkRepeatedError(ctx context.Context, event *events.MonitoringEvent) (*events.AlertCondition, error) {
	errorType, ok := event.Payload.String(fieldErrorType)
	if !ok || errorType == "" {
		return nil, nil
	}

	since := e.now().Add(-e.rules.RepeatedErrorWindow)
	count, err := e.querier.CountMatching(ctx, events.KindUIError, fieldErrorType, errorType, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count similar errors: %w", err)
	}
	if count < e.rules.RepeatedErrorThreshold {
		return nil, nil
	}

	return &events.AlertCondition{
		Category: events.CategoryError,
		Severity: events.SeverityError,
		Title:    fmt.Sprintf("UI Error Alert: %s", errorType),
		Message: fmt.Sprintf("%d %q errors reported in the last %s.",
			count, errorType, e.rules.RepeatedErrorWindow),
		EventID: event.EventID,
	}, nil
}

// checkSlowMetric fires when a single theme switch sample strictly exceeds
// the slow threshold. The comparison is > not >=: a sample exactly at the
// threshold does not fire.
func (e *Evaluator) checkSlowMetric(event *events.MonitoringEvent) *events.AlertCondition {
	name, ok := event.Payload.String(fieldMetricName)
	if !ok || name != metricThemeSwitch {
		return nil
	}
	value, ok := event.Payload.Float(fieldValue)
	if !ok || value <= e.rules.ThemeSwitchSlowMs {
		return nil
	}

	return &events.AlertCondition{
		Category: events.CategoryPerformance,
		Severity: events.SeverityWarning,
		Title:    fmt.Sprintf("Performance Alert: %s", name),
		Message: fmt.Sprintf("%s sample of %.0fms exceeded the %.0fms threshold.",
			name, value, e.rules.ThemeSwitchSlowMs),
		EventID: event.EventID,
	}
}

// checkThemeSwitchAverage fires when the trailing average theme switch
// duration strictly exceeds the aggregate threshold.
func (e *Evaluator) checkThemeSwitchAverage(ctx context.Context, since time.Time) (*events.AlertCondition, error) {
	averages, err := e.querier.GroupAverage(ctx, events.KindPerformanceMetric, fieldMetricName, fieldValue, since)
	if err != nil {
		return nil, fmt.Errorf("failed to average performance metrics: %w", err)
	}
	avg, ok := averages[metricThemeSwitch]
	if !ok || avg <= e.rules.ThemeSwitchAvgMs {
		return nil, nil
	}

	return &events.AlertCondition{
		Category: events.CategoryPerformance,
		Severity: events.SeverityWarning,
		Title:    "Theme Switching Performance Alert",
		Message: fmt.Sprintf("Average theme switch duration over the last %s is %.1fms (threshold %.0fms).",
			e.rules.ScanWindow, avg, e.rules.ThemeSwitchAvgMs),
	}, nil
}

// checkComponentErrorVolume produces one alert listing every component that
// reported ui_error events in the window.
func (e *Evaluator) checkComponentErrorVolume(ctx context.Context, since time.Time) (*events.AlertCondition, error) {
	counts, err := e.querier.GroupCount(ctx, events.KindUIError, fieldComponent, since)
	if err != nil {
		return nil, fmt.Errorf("failed to group errors by component: %w", err)
	}
	if len(counts) == 0 {
		return nil, nil
	}

	return &events.AlertCondition{
		Category: events.CategoryError,
		Severity: events.SeverityError,
		Title:    "Component Error Volume Alert",
		Message:  "UI errors by component over the last " + e.rules.ScanWindow.String() + ":\n" + formatCounts(counts),
	}, nil
}

// checkAccessibilityIssues produces one alert listing each accessibility
// feedback item's page, message, and theme.
func (e *Evaluator) checkAccessibilityIssues(ctx context.Context, since time.Time) (*events.AlertCondition, error) {
	items, err := e.querier.ListMatching(ctx, events.KindFeedback, fieldCategory, categoryAccessibility, since, e.rules.AccessibilityListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list accessibility feedback: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d accessibility issue(s) reported in the last %s:\n", len(items), e.rules.ScanWindow)
	for _, item := range items {
		page, _ := item.Payload.String("page")
		message, _ := item.Payload.String("message")
		theme, _ := item.Payload.String("theme")
		fmt.Fprintf(&sb, "- page=%s theme=%s: %s\n", page, theme, message)
	}

	return &events.AlertCondition{
		Category: events.CategoryAccessibility,
		Severity: events.SeverityError,
		Title:    "Accessibility Issues Alert",
		Message:  sb.String(),
	}, nil
}

// checkPerformanceRegressions produces one alert listing performance issue
// types and their counts.
func (e *Evaluator) checkPerformanceRegressions(ctx context.Context, since time.Time) (*events.AlertCondition, error) {
	counts, err := e.querier.GroupCount(ctx, events.KindPerformanceIssue, fieldIssueType, since)
	if err != nil {
		return nil, fmt.Errorf("failed to group performance issues: %w", err)
	}
	if len(counts) == 0 {
		return nil, nil
	}

	return &events.AlertCondition{
		Category: events.CategoryPerformance,
		Severity: events.SeverityWarning,
		Title:    "Performance Regression Alert",
		Message:  "Performance issues by type over the last " + e.rules.ScanWindow.String() + ":\n" + formatCounts(counts),
	}, nil
}

// formatCounts renders a group count map as sorted "name: count" lines so
// the alert message is deterministic.
func formatCounts(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "- %s: %d\n", name, counts[name])
	}
	return sb.String()
}
