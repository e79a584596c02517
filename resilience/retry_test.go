package resilience

import (
	"context"
	stderrors "errors"
	"io"
	"testing"
	"time"

	"github.com/kbukum/datasets/errors"
)

func fastRetry() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	return cfg
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), DefaultRetryConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || result != "ok" {
		t.Errorf("expected ok, got %q %v", result, err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_RetriesArchiveFailures(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastRetry(), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.ArchiveFailure("annotations.zip", io.ErrUnexpectedEOF)
		}
		return 42, nil
	})
	if err != nil || result != 42 {
		t.Errorf("expected 42, got %d %v", result, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_StopsOnMalformedData(t *testing.T) {
	calls := 0
	err := RetryFunc(context.Background(), fastRetry(), func() error {
		calls++
		return errors.InvalidFormat("bbox", "4 numbers")
	})
	if !errors.HasCode(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("expected INVALID_FORMAT, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected no retry, got %d calls", calls)
	}
}

func TestRetry_ExceedsMaxAttempts(t *testing.T) {
	cfg := fastRetry()
	cfg.MaxAttempts = 4
	var retried []int
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }

	calls := 0
	err := RetryFunc(context.Background(), cfg, func() error {
		calls++
		return errors.ArchiveFailure("images.zip", io.ErrUnexpectedEOF)
	})
	if !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected the last cause, got %v", err)
	}
	if calls != 4 || len(retried) != 3 {
		t.Errorf("expected 4 calls and 3 retries, got %d and %v", calls, retried)
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry()
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := RetryFunc(ctx, cfg, func() error {
		calls++
		return errors.ArchiveFailure("images.zip", io.ErrUnexpectedEOF)
	})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(errors.ArchiveFailure("x", nil)) {
		t.Error("archive failures should be retryable")
	}
	if IsRetryable(stderrors.New("plain")) {
		t.Error("plain errors should not be retryable")
	}
	if IsRetryable(errors.NotFound("category", "3")) {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2}

	cases := map[int]time.Duration{
		1: 100 * time.Millisecond,
		2: 200 * time.Millisecond,
		3: 400 * time.Millisecond,
		5: time.Second,
	}
	for attempt, want := range cases {
		if got := calculateBackoff(attempt, cfg); got != want {
			t.Errorf("attempt %d: expected %v, got %v", attempt, want, got)
		}
	}
}
