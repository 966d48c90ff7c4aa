package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	rl := newMemoryLimiterAt(func() time.Time { return *clock })
	defer rl.Close()

	const limit = 5
	period := time.Minute

	// The Nth call within the window is allowed.
	for i := 1; i <= limit; i++ {
		d := rl.Allow("record_event", "user:1", limit, period)
		if !d.Allowed {
			t.Fatalf("call %d should be allowed", i)
		}
		if d.Count != int64(i) {
			t.Errorf("call %d count = %d", i, d.Count)
		}
	}

	// The (N+1)th call within the same window is denied with a retry hint.
	d := rl.Allow("record_event", "user:1", limit, period)
	if d.Allowed {
		t.Fatal("call over the limit should be denied")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > period {
		t.Errorf("RetryAfter = %v, want within (0, %v]", d.RetryAfter, period)
	}

	// After the period elapses the counter resets entirely.
	now = now.Add(period)
	d = rl.Allow("record_event", "user:1", limit, period)
	if !d.Allowed {
		t.Fatal("first call of a new window should be allowed")
	}
	if d.Count != 1 {
		t.Errorf("new window count = %d, want 1", d.Count)
	}
}

func TestMemoryLimiter_IsolatesIdentitiesAndActions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := newMemoryLimiterAt(func() time.Time { return now })
	defer rl.Close()

	rl.Allow("record_event", "user:1", 1, time.Minute)
	if d := rl.Allow("record_event", "user:1", 1, time.Minute); d.Allowed {
		t.Error("user:1 should be over its limit")
	}
	if d := rl.Allow("record_event", "user:2", 1, time.Minute); !d.Allowed {
		t.Error("user:2 should have an independent counter")
	}
	if d := rl.Allow("submit_feedback", "user:1", 1, time.Minute); !d.Allowed {
		t.Error("a different action should have an independent counter")
	}
}

func TestMemoryLimiter_ZeroLimitDisables(t *testing.T) {
	now := time.Now()
	rl := newMemoryLimiterAt(func() time.Time { return now })
	defer rl.Close()

	for i := 0; i < 100; i++ {
		if d := rl.Allow("record_event", "user:1", 0, time.Minute); !d.Allowed {
			t.Fatal("zero limit should disable limiting")
		}
	}
}

func TestMemoryLimiter_ConcurrentBoundary(t *testing.T) {
	rl := NewMemoryLimiter()
	defer rl.Close()

	const limit = 50
	const callers = 200
	var wg sync.WaitGroup
	allowed := make(chan struct{}, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d := rl.Allow("record_event", "user:1", limit, time.Minute); d.Allowed {
				allowed <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(allowed)

	var count int
	for range allowed {
		count++
	}
	if count != limit {
		t.Errorf("exactly %d concurrent calls should pass, got %d", limit, count)
	}
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := newMemoryLimiterAt(func() time.Time { return now })
	defer rl.Close()

	rl.Allow("record_event", "user:1", 5, time.Minute)
	rl.cleanup(now.Add(2 * time.Minute))

	rl.mu.Lock()
	remaining := len(rl.entries)
	rl.mu.Unlock()
	if remaining != 0 {
		t.Errorf("expired entries should be swept, %d remain", remaining)
	}
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		remoteAddr string
		want       string
	}{
		{name: "authenticated user wins", userID: "user-42", remoteAddr: "203.0.113.7:8443", want: "user:user-42"},
		{name: "ipv4 with port", remoteAddr: "203.0.113.7:8443", want: "ip:203.0.0.0"},
		{name: "ipv4 without port", remoteAddr: "198.51.100.23", want: "ip:198.51.0.0"},
		{name: "ipv6", remoteAddr: "[2001:db8:85a3:1:2:3:4:5]:443", want: "ip:2001:db8:85a3:1:2:3::"},
		{name: "garbage", remoteAddr: "not-an-address", want: "ip:unknown"},
		{name: "empty", remoteAddr: "", want: "ip:unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Identity(tt.userID, tt.remoteAddr); got != tt.want {
				t.Errorf("Identity(%q, %q) = %q, want %q", tt.userID, tt.remoteAddr, got, tt.want)
			}
		})
	}
}

func TestAnonymizeAddr_NeverVerbatim(t *testing.T) {
	addrs := []string{"203.0.113.77", "2001:db8::dead:beef"}
	for _, addr := range addrs {
		if got := AnonymizeAddr(addr); got == addr {
			t.Errorf("AnonymizeAddr(%q) returned the address verbatim", addr)
		}
	}
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	rule, ok := rules["record_event"]
	if !ok {
		t.Fatal("record_event rule should exist")
	}
	if rule.Limit <= 0 || rule.Period <= 0 {
		t.Errorf("record_event rule is degenerate: %+v", rule)
	}
}
