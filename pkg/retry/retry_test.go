package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "identivibe/pkg/errors"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		return nil
	}, fastConfig(4))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		if attempts < 3 {
			return errs.New(errs.ErrorTypeTransport, 503, "flaky")
		}
		return nil
	}, fastConfig(4))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

// A config built for maxRetries=3 must make exactly 4 attempts against a
// permanently failing operation and surface the last error unmodified.
func TestDoExhaustionAttemptCount(t *testing.T) {
	cfg := HTTPConfig(context.Background(), 3, time.Millisecond, 5*time.Millisecond, 2.0, nil)

	attempts := 0
	failure := errs.New(errs.ErrorTypeTransport, 503, "service unavailable")
	err := Do(func() error {
		attempts++
		return failure
	}, cfg)

	if attempts != 4 {
		t.Errorf("expected exactly 4 attempts, got %d", attempts)
	}

	var apiErr *errs.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected typed error, got %v", err)
	}
	if apiErr != failure {
		t.Error("expected the last observed error surfaced unmodified")
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		return errs.New(errs.ErrorTypeParsing, 200, "bad json")
	}, fastConfig(4))

	if attempts != 1 {
		t.Errorf("expected 1 attempt for a non-retryable error, got %d", attempts)
	}
	var apiErr *errs.Error
	if !errors.As(err, &apiErr) || apiErr.Type != errs.ErrorTypeParsing {
		t.Errorf("expected parsing error, got %v", err)
	}
}

func TestDoRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(10)
	cfg.Context = ctx
	cfg.Backoff = &ConstantBackoff{Delay: time.Second}

	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(func() error {
			attempts++
			return errs.New(errs.ErrorTypeTransport, 503, "down")
		}, cfg)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected cancellation error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("retry did not stop after cancellation")
	}
}

func TestDefaultRetryIf(t *testing.T) {
	if DefaultRetryIf(nil) {
		t.Error("nil error must not be retried")
	}
	if DefaultRetryIf(context.Canceled) {
		t.Error("cancellation must not be retried")
	}
	if !DefaultRetryIf(errors.New("mystery")) {
		t.Error("unknown errors default to retrying")
	}
	if !DefaultRetryIf(errs.New(errs.ErrorTypeAuth, 403, "gated")) {
		t.Error("sporadic auth gates are retryable")
	}
	if DefaultRetryIf(errs.New(errs.ErrorTypeJobFailed, 0, "run failed")) {
		t.Error("job failures must not be retried")
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errs.New(errs.ErrorTypeRateLimit, 429, "slow down")
		}
		return "ok", nil
	}, fastConfig(4))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected result passthrough, got %q", result)
	}
}
