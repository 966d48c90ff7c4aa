package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/hendripermana/uiwatch/internal/events"
)

type memoryThrottle struct {
	mu      sync.Mutex
	markers map[string]time.Time
	now     func() time.Time
}

// NewMemoryThrottle constructs an in-process throttle for single-node
// deployments and tests.
func NewMemoryThrottle() Throttle {
	return &memoryThrottle{
		markers: make(map[string]time.Time),
		now:     time.Now,
	}
}

// newMemoryThrottleAt constructs a memory throttle with an injectable clock.
func newMemoryThrottleAt(now func() time.Time) *memoryThrottle {
	return &memoryThrottle{
		markers: make(map[string]time.Time),
		now:     now,
	}
}

func (t *memoryThrottle) ShouldSuppress(_ context.Context, category events.Category, title string) bool {
	key := Key(category, title)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if expiry, ok := t.markers[key]; ok && now.Before(expiry) {
		// Live marker: suppress, and do not reset its expiry.
		return true
	}
	t.markers[key] = now.Add(events.CooldownFor(category))
	return false
}

func (t *memoryThrottle) Close() {}
