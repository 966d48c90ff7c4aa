// Package ratelimit provides a fixed-window rate limiter used to cap inbound
// monitoring event ingestion per identity.
//
// The counter resets entirely at window boundaries (fixed window, not
// sliding). Increment-and-check is atomic: two concurrent requests at the
// limit boundary can never both pass.
package ratelimit

import (
	"time"
)

// Policy decides what a limiter does when its counter backend is unreachable.
type Policy string

const (
	// FailOpen allows requests when the backend is unavailable. This is the
	// default: the limiter protects an auxiliary subsystem and should not
	// take core functionality down with it.
	FailOpen Policy = "fail-open"
	// FailClosed rejects requests when the backend is unavailable.
	FailClosed Policy = "fail-closed"
)

// Rule is the limit configuration for a single named action.
type Rule struct {
	Limit  int
	Period time.Duration
}

// Rules maps action names to their limits. Passed to the limiter owner at
// construction; there is no mutable global configuration.
type Rules map[string]Rule

// DefaultRules returns the standard ingestion limits.
func DefaultRules() Rules {
	return Rules{
		"record_event":    {Limit: 60, Period: time.Minute},
		"submit_feedback": {Limit: 10, Period: time.Minute},
	}
}

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed bool
	Count   int64
	// RetryAfter is the remaining window TTL; meaningful when Allowed is
	// false and surfaced to callers as a retry-after hint.
	RetryAfter time.Duration
}

// Limiter is a fixed-window per-(action, identity) rate limiter.
type Limiter interface {
	// Allow atomically increments the counter for (action, identity) and
	// reports whether the request is within the limit. Backend failures are
	// resolved internally according to the limiter's failure policy.
	Allow(action, identity string, limit int, period time.Duration) Decision

	// Close releases limiter resources.
	Close()
}
