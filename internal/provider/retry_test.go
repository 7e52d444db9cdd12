package provider

import (
	"testing"
	"time"
)

func TestFixedBackoff(t *testing.T) {
	b := FixedBackoff(5 * time.Second)
	for attempt := 1; attempt <= 4; attempt++ {
		if got := b.Delay(attempt); got != 5*time.Second {
			t.Errorf("Delay(%d) = %v, want 5s", attempt, got)
		}
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff{Initial: 500 * time.Millisecond, Max: 5 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, time.Second},
		{3, 2 * time.Second},
		{4, 4 * time.Second},
		{5, 5 * time.Second}, // capped
		{9, 5 * time.Second}, // still capped
	}
	for _, tt := range tests {
		if got := b.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialBackoffNoCap(t *testing.T) {
	b := ExponentialBackoff{Initial: time.Second}
	if got := b.Delay(4); got != 8*time.Second {
		t.Errorf("Delay(4) = %v, want 8s", got)
	}
}

func TestRetryConfigDefaults(t *testing.T) {
	cfg := RetryConfig{}.withDefaults()
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.Backoff == nil {
		t.Error("Backoff = nil")
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}

	custom := RetryConfig{MaxAttempts: 5, Backoff: FixedBackoff(0), Timeout: time.Second}.withDefaults()
	if custom.MaxAttempts != 5 || custom.Timeout != time.Second {
		t.Error("withDefaults() overrode explicit values")
	}
}
