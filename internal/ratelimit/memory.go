package ratelimit

import (
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

type windowState struct {
	count     int64
	windowEnd time.Time
}

type memoryLimiter struct {
	mu      sync.Mutex
	entries map[string]windowState
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

// NewMemoryLimiter constructs an in-process fixed-window limiter. Suitable
// for single-node deployments and tests; the Redis limiter is the shared
// production backend.
func NewMemoryLimiter() Limiter {
	rl := &memoryLimiter{
		entries: make(map[string]windowState),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// newMemoryLimiterAt constructs a memory limiter with an injectable clock.
// Used by tests to simulate window expiry without sleeping.
func newMemoryLimiterAt(now func() time.Time) *memoryLimiter {
	return &memoryLimiter{
		entries: make(map[string]windowState),
		now:     now,
		stopCh:  make(chan struct{}),
	}
}

func (rl *memoryLimiter) Allow(action, identity string, limit int, period time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if period <= 0 {
		period = time.Minute
	}
	key := action + ":" + identity
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.entries[key]
	if !ok || !now.Before(state.windowEnd) {
		state = windowState{count: 1, windowEnd: now.Add(period)}
		rl.entries[key] = state
		return Decision{Allowed: true, Count: 1, RetryAfter: period}
	}

	state.count++
	rl.entries[key] = state
	return Decision{
		Allowed:    state.count <= int64(limit),
		Count:      state.count,
		RetryAfter: state.windowEnd.Sub(now),
	}
}

func (rl *memoryLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(rl.now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *memoryLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, state := range rl.entries {
		if !now.Before(state.windowEnd) {
			delete(rl.entries, key)
		}
	}
}

func (rl *memoryLimiter) Close() {
	rl.once.Do(func() {
		close(rl.stopCh)
	})
}
