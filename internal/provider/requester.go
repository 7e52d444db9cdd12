package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/trinhtuanphong123/energy-forecast-pipeline/internal/logging"
)

// requester executes HTTP requests with bounded retry and a circuit breaker.
// Both provider clients share it; only request construction differs.
type requester struct {
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker
	maxAttempts int
	backoff     Backoff
}

func newRequester(name string, retry RetryConfig, client *http.Client) *requester {
	retry = retry.withDefaults()
	if client == nil {
		client = &http.Client{Timeout: retry.Timeout}
	}
	return &requester{
		client: client,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     2 * time.Minute,
			// 4xx means the request itself is wrong, not that the provider
			// is unhealthy; only transient failures may trip the breaker.
			IsSuccessful: func(err error) bool {
				var perm *PermanentError
				return err == nil || errors.As(err, &perm)
			},
		}),
		maxAttempts: retry.MaxAttempts,
		backoff:     retry.Backoff,
	}
}

// getJSON performs the request built by build, decoding the JSON response.
// Transient failures are retried up to the attempt bound; 4xx responses fail
// immediately with *PermanentError.
func (r *requester) getJSON(ctx context.Context, build func() (*http.Request, error)) (Payload, error) {
	log := logging.FromContext(ctx)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		payload, err := r.attempt(ctx, build)
		if err == nil {
			return payload, nil
		}

		var perm *PermanentError
		if errors.As(err, &perm) {
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// Recent attempts already failed; waiting out this run's retry
			// budget will not close the breaker.
			return nil, &TransientError{Attempts: attempt, Err: err}
		}
		if attempt >= r.maxAttempts {
			return nil, &TransientError{Attempts: attempt, Err: err}
		}

		delay := r.backoff.Delay(attempt)
		log.Warn().
			Int("attempt", attempt).
			Int("max_attempts", r.maxAttempts).
			Dur("retry_in", delay).
			Err(err).
			Msg("transient fetch failure, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *requester) attempt(ctx context.Context, build func() (*http.Request, error)) (Payload, error) {
	result, err := r.breaker.Execute(func() (any, error) {
		req, err := build()
		if err != nil {
			return nil, &PermanentError{Err: fmt.Errorf("build request: %w", err)}
		}
		req = req.WithContext(ctx)

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("status %d from %s", resp.StatusCode, req.URL.Host)
		case resp.StatusCode >= 400:
			io.Copy(io.Discard, resp.Body)
			return nil, &PermanentError{
				Status: resp.StatusCode,
				Err:    fmt.Errorf("status %d from %s", resp.StatusCode, req.URL.Host),
			}
		}

		var p Payload
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			return nil, &PermanentError{
				Status: resp.StatusCode,
				Err:    fmt.Errorf("decode response: %w", err),
			}
		}
		// A literal null body decodes into a nil map without error; callers
		// write into the payload, so it must never be nil.
		if p == nil {
			return nil, &PermanentError{
				Status: resp.StatusCode,
				Err:    fmt.Errorf("response body is null"),
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(Payload), nil
}
