package budget

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	if err := (Config{MaxCost: -1}).Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := (Config{MaxTokens: -5}).Validate(); err == nil {
		t.Fatalf("expected token validation error")
	}
	if err := (Config{MaxCost: 2, MaxTokens: 10, MaxTimeSeconds: 30}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMerge(t *testing.T) {
	base := Config{MaxCost: 5, MaxTokens: 1000}
	override := Config{MaxTokens: 200, MaxTimeSeconds: 60}
	merged := Merge(base, override)
	if merged.MaxCost != 5 {
		t.Fatalf("expected max cost to persist, got %v", merged.MaxCost)
	}
	if merged.MaxTokens != 200 || merged.MaxTimeSeconds != 60 {
		t.Fatalf("expected overrides to apply, got %+v", merged)
	}
	if base.MaxTokens != 1000 {
		t.Fatalf("base should be untouched")
	}
}

func TestIsZero(t *testing.T) {
	if !(Config{}).IsZero() {
		t.Fatalf("empty config should be zero")
	}
	if (Config{MaxTimeSeconds: 1}).IsZero() {
		t.Fatalf("config with a limit should not be zero")
	}
}

func TestMonitorCheckCostAndTokens(t *testing.T) {
	mon := NewMonitor(Config{MaxCost: 5, MaxTokens: 1000})
	if err := mon.Check(2.5, 400); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := mon.Check(2.5, 1100)
	var exceeded ErrExceeded
	if !errors.As(err, &exceeded) || exceeded.Kind != "tokens" {
		t.Fatalf("expected token budget breach, got %v", err)
	}
	err = mon.Check(5.0, 0)
	if !errors.As(err, &exceeded) || exceeded.Kind != "cost" {
		t.Fatalf("expected cost budget breach, got %v", err)
	}
}

func TestMonitorCheckTime(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	mon := newMonitorAt(Config{MaxTimeSeconds: 1}, clock)
	if err := mon.CheckTime(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now = now.Add(2 * time.Second)
	err := mon.Check(0, 0)
	var exceeded ErrExceeded
	if !errors.As(err, &exceeded) || exceeded.Kind != "time" {
		t.Fatalf("expected time budget breach, got %v", err)
	}
}

func TestNilMonitorNeverFails(t *testing.T) {
	var mon *Monitor
	if err := mon.Check(1e9, 1e12); err != nil {
		t.Fatalf("nil monitor should not fail: %v", err)
	}
}
