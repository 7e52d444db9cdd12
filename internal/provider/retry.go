package provider

import "time"

// Backoff yields the delay to wait before the next attempt, given the
// 1-based number of the attempt that just failed. Injecting the strategy
// keeps the retry loop deterministic under test.
type Backoff interface {
	Delay(attempt int) time.Duration
}

// FixedBackoff waits the same duration between every attempt.
type FixedBackoff time.Duration

// Delay returns the fixed duration regardless of attempt.
func (b FixedBackoff) Delay(int) time.Duration { return time.Duration(b) }

// ExponentialBackoff doubles the delay after each failed attempt, capped at
// Max when Max is positive.
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

// Delay returns Initial * 2^(attempt-1), capped at Max.
func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	d := b.Initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// RetryConfig bounds the fetch attempts of a client.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Defaults to 3.
	MaxAttempts int
	// Backoff is the delay strategy between attempts. Defaults to a fixed
	// 5 second delay.
	Backoff Backoff
	// Timeout bounds each HTTP request. Defaults to 30 seconds. Ignored
	// when the caller supplies its own http.Client.
	Timeout time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff == nil {
		c.Backoff = FixedBackoff(5 * time.Second)
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}
