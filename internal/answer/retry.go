package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrModelUnavailable marks a model failure that persisted through every
// retry attempt. Callers may retry the whole request later.
var ErrModelUnavailable = errors.New("model unavailable")

// Backoff maps a zero-based attempt number to the wait before the next try.
type Backoff func(attempt int) time.Duration

// exponentialBackoff doubles the base delay on each attempt, capped at max.
func exponentialBackoff(base, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := base << attempt
		if d > max || d <= 0 {
			return max
		}
		return d
	}
}

// retryablePatterns groups error substrings by category, matched
// case-insensitively against err.Error().
//
// NOTE: string matching is used because Genkit and LLM provider SDKs do not
// expose typed errors for transient failures. Re-evaluate if Genkit adds
// structured error types in a future version.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},      // rate limiting
	{"500", "502", "503", "504", "unavailable"},  // transient server errors
	{"connection reset", "timeout", "temporary"}, // network errors
}

// retryableError reports whether err is transient and should trigger a retry.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := err.Error()
	for _, group := range retryablePatterns {
		if containsAny(errStr, group...) {
			return true
		}
	}
	return false
}

func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// withRetry runs op up to maxAttempts times, sleeping per backoff between
// attempts. Non-retryable errors fail immediately. A failure that survives
// every attempt is wrapped with ErrModelUnavailable.
func withRetry[T any](ctx context.Context, maxAttempts int, backoff Backoff, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryableError(err) {
			return zero, err
		}
		if attempt == maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("canceled during retry: %w", ctx.Err())
		case <-time.After(backoff(attempt)):
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrModelUnavailable, maxAttempts, lastErr)
}
