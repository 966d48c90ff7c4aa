// Package events defines the monitoring event and alert condition structures
// shared across the ingestion, evaluation, and dispatch pipeline.
package events

import (
	"fmt"
	"time"
)

// Kind identifies the type of a monitoring event.
type Kind string

// Known event kinds.
const (
	KindUIError           Kind = "ui_error"
	KindPerformanceMetric Kind = "performance_metric"
	KindPerformanceIssue  Kind = "performance_issue"
	KindFeedback          Kind = "feedback"
	KindOther             Kind = "other"
)

// knownKinds is the set of kinds with dedicated evaluation rules.
var knownKinds = map[Kind]bool{
	KindUIError:           true,
	KindPerformanceMetric: true,
	KindPerformanceIssue:  true,
	KindFeedback:          true,
	KindOther:             true,
}

// ParseKind converts a raw kind string to a Kind.
// Unrecognized non-empty values map to KindOther so that new client-side
// event types are still recorded. Empty input is an error.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return "", fmt.Errorf("event kind cannot be empty")
	}
	k := Kind(s)
	if !knownKinds[k] {
		return KindOther, nil
	}
	return k, nil
}

// String returns the wire representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// MonitoringEvent is a single reported occurrence ingested by the system.
// Events are immutable after ingestion; the only sanctioned mutation is
// attaching an error-tracking reference to the payload after dispatch.
type MonitoringEvent struct {
	EventID   string    `json:"event_id"`
	Kind      Kind      `json:"kind"`
	Payload   Payload   `json:"payload"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Addr      string    `json:"addr,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Category classifies an alert condition.
type Category string

// Known alert categories.
const (
	CategoryError         Category = "error"
	CategoryPerformance   Category = "performance"
	CategoryAccessibility Category = "accessibility"
	CategoryGeneral       Category = "general"
)

// Severity is the urgency of an alert condition.
type Severity string

// Known severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// AlertCondition is a derived judgment that some threshold was crossed.
// Conditions are transient: produced by the evaluator, consumed immediately
// by the throttle and dispatcher, never persisted.
type AlertCondition struct {
	Category Category
	Severity Severity
	Title    string
	Message  string
	// EventID references the originating event when the condition was
	// produced by inline evaluation; empty for periodic-scan conditions.
	EventID string
}

// Default cooldowns between two dispatches of the same (category, title) alert.
const (
	CooldownError         = 30 * time.Minute
	CooldownPerformance   = time.Hour
	CooldownAccessibility = 2 * time.Hour
	CooldownDefault       = time.Hour
)

// CooldownFor returns the throttle cooldown for a category.
// Unknown categories fall back to the general default.
func CooldownFor(category Category) time.Duration {
	switch category {
	case CategoryError:
		return CooldownError
	case CategoryPerformance:
		return CooldownPerformance
	case CategoryAccessibility:
		return CooldownAccessibility
	default:
		return CooldownDefault
	}
}
