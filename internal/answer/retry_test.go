package answer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryableError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("429 Too Many Requests"), true},
		{"server error", errors.New("503 Service Unavailable"), true},
		{"timeout", errors.New("request timeout"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"deadline", context.DeadlineExceeded, true},
		{"auth failure", errors.New("401 unauthorized"), false},
		{"bad request", errors.New("invalid argument"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := retryableError(tt.err); got != tt.want {
				t.Errorf("retryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetrySucceedsAfterTransientFailure(t *testing.T) {
	t.Parallel()

	calls := 0
	result, err := withRetry(context.Background(), 3, exponentialBackoff(time.Millisecond, time.Second),
		func(context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("timeout")
			}
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("withRetry() error = %v", err)
	}
	if result != "ok" {
		t.Errorf("withRetry() = %q, want ok", result)
	}
	if calls != 2 {
		t.Errorf("op called %d times, want 2", calls)
	}
}

func TestWithRetryNonRetryableFailsImmediately(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("invalid api key")
	calls := 0
	_, err := withRetry(context.Background(), 3, exponentialBackoff(time.Millisecond, time.Second),
		func(context.Context) (string, error) {
			calls++
			return "", wantErr
		})
	if !errors.Is(err, wantErr) {
		t.Errorf("withRetry() error = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := withRetry(context.Background(), 3, exponentialBackoff(time.Millisecond, time.Second),
		func(context.Context) (string, error) {
			calls++
			return "", errors.New("503 unavailable")
		})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("withRetry() error = %v, want ErrModelUnavailable", err)
	}
	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}
}

func TestWithRetryRespectsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := withRetry(ctx, 3, exponentialBackoff(time.Minute, time.Hour),
		func(context.Context) (string, error) {
			return "", errors.New("timeout")
		})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("withRetry() error = %v, want context.Canceled", err)
	}
}

func TestExponentialBackoffDoubles(t *testing.T) {
	t.Parallel()

	backoff := exponentialBackoff(time.Second, 10*time.Second)
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second}
	for attempt, d := range want {
		if got := backoff(attempt); got != d {
			t.Errorf("backoff(%d) = %v, want %v", attempt, got, d)
		}
	}
}
