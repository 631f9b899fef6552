package shared

import (
	"strings"
	"testing"
	"time"
)

func TestNewID_Prefix(t *testing.T) {
	id := NewID("resume_")
	if !strings.HasPrefix(id, "resume_") {
		t.Errorf("expected resume_ prefix, got %s", id)
	}
	if len(id) != len("resume_")+32 {
		t.Errorf("expected 32 hex chars after prefix, got %d", len(id)-len("resume_"))
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID("x_")
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestNewUUID_Shape(t *testing.T) {
	id := NewUUID()
	parts := strings.Split(id, "-")
	if len(parts) != 5 {
		t.Fatalf("expected 5 groups, got %d in %s", len(parts), id)
	}
	if len(id) != 36 {
		t.Errorf("expected 36 chars, got %d in %s", len(id), id)
	}
	if id[14] != '4' {
		t.Errorf("expected version 4 marker, got %c in %s", id[14], id)
	}
}

func TestNormalizeBackoff_Defaults(t *testing.T) {
	cfg := NormalizeBackoff(BackoffConfig{})
	if cfg.Base != 5*time.Second {
		t.Errorf("expected 5s base, got %v", cfg.Base)
	}
	if cfg.MaxDelay != 30*time.Second {
		t.Errorf("expected 30s cap, got %v", cfg.MaxDelay)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", cfg.MaxAttempts)
	}
}

func TestNormalizeBackoff_KeepsCustom(t *testing.T) {
	cfg := NormalizeBackoff(BackoffConfig{
		Base:        time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
		MaxAttempts: 2,
	})
	if cfg.Base != time.Millisecond || cfg.MaxDelay != 10*time.Millisecond || cfg.MaxAttempts != 2 {
		t.Errorf("custom config was altered: %+v", cfg)
	}
}

func TestBackoff_DelayFor_LinearCapped(t *testing.T) {
	cfg := BackoffConfig{Base: 5 * time.Second, MaxDelay: 30 * time.Second, MaxAttempts: 10}

	var prev time.Duration
	for attempt := 1; attempt <= 10; attempt++ {
		d := cfg.DelayFor(attempt)
		if d < prev {
			t.Errorf("delay decreased at attempt %d: %v < %v", attempt, d, prev)
		}
		if d > 30*time.Second {
			t.Errorf("delay exceeds cap at attempt %d: %v", attempt, d)
		}
		prev = d
	}

	if got := cfg.DelayFor(1); got != 5*time.Second {
		t.Errorf("attempt 1: expected 5s, got %v", got)
	}
	if got := cfg.DelayFor(6); got != 30*time.Second {
		t.Errorf("attempt 6: expected cap 30s, got %v", got)
	}
	if got := cfg.DelayFor(0); got != 5*time.Second {
		t.Errorf("attempt 0 should clamp to 1: got %v", got)
	}
}
