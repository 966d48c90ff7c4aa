// Package throttle suppresses duplicate alert dispatches within a
// category-specific cooldown window, preventing alert storms.
package throttle

import (
	"context"
	"strings"

	"github.com/hendripermana/uiwatch/internal/events"
)

// Throttle decides whether an alert condition fired too recently.
type Throttle interface {
	// ShouldSuppress reports whether an alert for (category, title) is
	// inside its cooldown window. When no live marker exists, the marker is
	// created in the same atomic operation and false is returned; an
	// existing marker is never refreshed.
	ShouldSuppress(ctx context.Context, category events.Category, title string) bool

	// Close releases throttle resources.
	Close()
}

// Key derives the deterministic throttle key for a (category, title) pair.
// Normalization is idempotent: Key(Key(x)) folds to the same marker.
func Key(category events.Category, title string) string {
	return Normalize(string(category) + ":" + title)
}

// Normalize replaces every character outside [A-Za-z0-9_-] with an
// underscore.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
