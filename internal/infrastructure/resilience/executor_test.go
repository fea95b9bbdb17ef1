package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func retryable(target error) ErrorClassifier {
	return func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, target),
			RecordFailure: true,
		}
	}
}

func TestDefaultConfigFailsFast(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "answer", func(context.Context) error {
		attempts++
		return errTemp
	}, retryable(errTemp))
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt by default, got %d", attempts)
	}
}

func TestDoRetriesTemporaryFailureAndReturnsValue(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errTemp := errors.New("temporary")
	got, err := Do(context.Background(), exec, "topic_match", func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errTemp
		}
		return "1. Tax", nil
	}, retryable(errTemp))
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got != "1. Tax" {
		t.Fatalf("unexpected value %q", got)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoWithoutExecutorCallsThrough(t *testing.T) {
	got, err := Do(context.Background(), nil, "op", func(context.Context) (int, error) {
		return 7, nil
	}, nil)
	if err != nil || got != 7 {
		t.Fatalf("expected pass-through result, got %d, %v", got, err)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		BreakerEnabled:      false,
	})

	attempts := 0
	errPermanent := errors.New("unauthorized")
	err := exec.Execute(context.Background(), "answer", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteStopsRetryingWhenContextCanceled(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    5,
		RetryInitialBackoff: time.Second,
		RetryMaxBackoff:     time.Second,
		BreakerEnabled:      false,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errTemp := errors.New("temporary")
	attempts := 0
	err := exec.Execute(ctx, "answer", func(context.Context) error {
		attempts++
		cancel()
		return errTemp
	}, retryable(errTemp))
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected last upstream error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errTemp := errors.New("temporary")
	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "answer", func(context.Context) error {
			return errTemp
		}, nil)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	if exec.State("answer") != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", exec.State("answer"))
	}
	err := exec.Execute(context.Background(), "answer", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, nil)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if exec.State("topic_match") != gobreaker.StateClosed {
		t.Fatalf("breakers must be tracked per operation")
	}
}

func TestInferenceConfigNormalizesInvalidSettings(t *testing.T) {
	cfg := InferenceConfig(0, 500*time.Millisecond, 100*time.Millisecond, false)
	if cfg.RetryMaxAttempts != 1 {
		t.Fatalf("expected fail-fast fallback, got %d attempts", cfg.RetryMaxAttempts)
	}
	if cfg.RetryMaxBackoff != 500*time.Millisecond {
		t.Fatalf("expected max backoff raised to initial, got %s", cfg.RetryMaxBackoff)
	}
	if cfg.BreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
	if cfg.BreakerMinRequests != DefaultConfig().BreakerMinRequests {
		t.Fatalf("expected default breaker thresholds")
	}
}
