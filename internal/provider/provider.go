// Package provider implements the retrying API clients for the weather and
// electricity data sources, plus the per-source payload shape adapters the
// orchestrator and compactor depend on.
//
// Payloads are kept opaque: clients return the provider's JSON document
// unmodified (electricity adds only a _metadata traceability block), and the
// shape adapters slice or wrap that document without validating its interior
// beyond what merging requires.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// NoHour marks an absent hour in work items and envelope metadata: the
// operation targets a whole day rather than a single-hour slice.
const NoHour = -1

// Payload is an opaque provider JSON document.
type Payload = map[string]any

// Client fetches one full-day payload from a provider. signal is required
// for the electricity source and ignored by weather.
type Client interface {
	FetchDay(ctx context.Context, date time.Time, signal string) (Payload, error)
}

// ErrHourNotFound is returned when a requested hour is absent from a
// provider's day payload, typically because the provider has not yet
// published that hour.
var ErrHourNotFound = errors.New("hour not found in day payload")

// PermanentError marks a fetch failure that retrying cannot fix, such as a
// rejected API key or a malformed request (HTTP 4xx).
type PermanentError struct {
	Status int
	Err    error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent fetch failure (status %d): %v", e.Status, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// TransientError marks a fetch failure that persisted through every retry
// attempt (network errors, timeouts, HTTP 5xx, rate limiting). It carries
// the last underlying error.
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient fetch failure after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
