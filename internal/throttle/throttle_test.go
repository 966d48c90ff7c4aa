package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/hendripermana/uiwatch/internal/events"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already clean", input: "error_UI-Alert-1", want: "error_UI-Alert-1"},
		{name: "spaces and colon", input: "error:UI Error Alert: TypeError", want: "error_UI_Error_Alert__TypeError"},
		{name: "slash collapses like underscore", input: "Alert: X/Y", want: "Alert__X_Y"},
		{name: "underscore variant", input: "Alert: X_Y", want: "Alert__X_Y"},
		{name: "unicode", input: "Alerta: métrica", want: "Alerta__m_trica"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"UI Error Alert: TypeError",
		"performance:Theme Switching Performance Alert",
		"___",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize is not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestKey(t *testing.T) {
	got := Key(events.CategoryError, "UI Error Alert: TypeError")
	want := "error_UI_Error_Alert__TypeError"
	if got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
	// Distinct titles that normalize identically share a marker.
	if Key(events.CategoryError, "Alert: X/Y") != Key(events.CategoryError, "Alert: X_Y") {
		t.Error("titles with identical normalization should map to the same key")
	}
}

func TestMemoryThrottle_SuppressWithinCooldown(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	th := newMemoryThrottleAt(func() time.Time { return *clock })
	ctx := context.Background()

	if th.ShouldSuppress(ctx, events.CategoryError, "UI Error Alert: TypeError") {
		t.Fatal("first dispatch must not be suppressed")
	}
	if !th.ShouldSuppress(ctx, events.CategoryError, "UI Error Alert: TypeError") {
		t.Fatal("second dispatch within cooldown must be suppressed")
	}

	// Just before the error cooldown ends the marker is still live.
	now = now.Add(events.CooldownError - time.Second)
	if !th.ShouldSuppress(ctx, events.CategoryError, "UI Error Alert: TypeError") {
		t.Fatal("dispatch just inside the cooldown must be suppressed")
	}

	// After the cooldown elapses the next dispatch passes again. The
	// intermediate suppressed checks must not have reset the expiry.
	now = now.Add(2 * time.Second)
	if th.ShouldSuppress(ctx, events.CategoryError, "UI Error Alert: TypeError") {
		t.Fatal("dispatch after cooldown must not be suppressed")
	}
}

func TestMemoryThrottle_CategoriesIndependent(t *testing.T) {
	now := time.Now()
	th := newMemoryThrottleAt(func() time.Time { return now })
	ctx := context.Background()

	if th.ShouldSuppress(ctx, events.CategoryError, "Same Title") {
		t.Fatal("first error dispatch must pass")
	}
	if th.ShouldSuppress(ctx, events.CategoryPerformance, "Same Title") {
		t.Fatal("same title under a different category must pass")
	}
}
