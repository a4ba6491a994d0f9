package executor

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/genxais/pipelined/internal/domain"
)

// newTestExecutor создаёт Executor с мгновенным sleep, записывая задержки.
func newTestExecutor(delays *[]time.Duration) *Executor {
	return New(Config{
		Logger: slog.Default(),
		Sleep: func(_ context.Context, d time.Duration) error {
			if delays != nil {
				*delays = append(*delays, d)
			}
			return nil
		},
	})
}

func TestExecuteWithRetry_SucceedsFirstAttempt(t *testing.T) {
	e := newTestExecutor(nil)

	step := &domain.Step{
		Name: "A",
		Func: func(_ context.Context, input, _ map[string]any) (map[string]any, error) {
			return map[string]any{"x": input["n"]}, nil
		},
		Retry: domain.RetryPolicy{MaxRetries: 3, BaseDelay: time.Second},
	}

	result, attempts, err := e.ExecuteWithRetry(context.Background(), step, map[string]any{"n": 42}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
	if result["x"] != 42 {
		t.Errorf("expected x=42, got %v", result["x"])
	}
}

func TestExecuteWithRetry_SucceedsThirdAttempt(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	calls := 0
	step := &domain.Step{
		Name: "flaky",
		Func: func(_ context.Context, _, _ map[string]any) (map[string]any, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("transient")
			}
			return map[string]any{"ok": true}, nil
		},
		Retry: domain.RetryPolicy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Minute},
	}

	result, attempts, err := e.ExecuteWithRetry(context.Background(), step, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if result["ok"] != true {
		t.Errorf("expected ok=true, got %v", result)
	}

	// Линейный backoff: base*1, base*2.
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("expected %d delays, got %d", len(want), len(delays))
	}
	for i, d := range want {
		if delays[i] != d {
			t.Errorf("delay %d: expected %v, got %v", i, d, delays[i])
		}
	}
}

func TestExecuteWithRetry_Exhausted(t *testing.T) {
	e := newTestExecutor(nil)

	stepErr := errors.New("always broken")
	step := &domain.Step{
		Name: "broken",
		Func: func(_ context.Context, _, _ map[string]any) (map[string]any, error) {
			return nil, stepErr
		},
		Retry: domain.RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond},
	}

	_, attempts, err := e.ExecuteWithRetry(context.Background(), step, nil, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}

	// Последняя ошибка возвращается без изменений.
	if !errors.Is(err, stepErr) {
		t.Errorf("expected original step error in chain, got %v", err)
	}

	var execErr *StepExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected StepExecutionError, got %T", err)
	}
	if execErr.Step != "broken" || execErr.Attempts != 2 {
		t.Errorf("unexpected error fields: %+v", execErr)
	}

	// Исчерпание попыток помечается сентинелом.
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("expected ErrRetryExhausted in chain, got %v", err)
	}
}

func TestExecuteWithRetry_DelayCappedByMaxDelay(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	step := &domain.Step{
		Name: "capped",
		Func: func(_ context.Context, _, _ map[string]any) (map[string]any, error) {
			return nil, errors.New("fail")
		},
		Retry: domain.RetryPolicy{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: 2 * time.Second},
	}

	_, _, err := e.ExecuteWithRetry(context.Background(), step, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}

	// base*1=1s, base*2=2s, base*3=3s→cap 2s, base*4=4s→cap 2s.
	want := []time.Duration{time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d delays, got %d: %v", len(want), len(delays), delays)
	}
	for i, d := range want {
		if delays[i] != d {
			t.Errorf("delay %d: expected %v, got %v", i, d, delays[i])
		}
	}
}

func TestExecuteWithRetry_PanicIsolated(t *testing.T) {
	e := newTestExecutor(nil)

	step := &domain.Step{
		Name: "panicky",
		Func: func(_ context.Context, _, _ map[string]any) (map[string]any, error) {
			panic("boom")
		},
		Retry: domain.RetryPolicy{MaxRetries: 1, BaseDelay: time.Millisecond},
	}

	_, _, err := e.ExecuteWithRetry(context.Background(), step, nil, nil)
	if !errors.Is(err, ErrStepPanicked) {
		t.Errorf("expected ErrStepPanicked, got %v", err)
	}
}

func TestExecuteWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	e := New(Config{
		Sleep: func(ctx context.Context, _ time.Duration) error {
			return context.Canceled
		},
	})

	step := &domain.Step{
		Name: "cancelled",
		Func: func(_ context.Context, _, _ map[string]any) (map[string]any, error) {
			return nil, errors.New("fail")
		},
		Retry: domain.RetryPolicy{MaxRetries: 3, BaseDelay: time.Second},
	}

	_, attempts, err := e.ExecuteWithRetry(context.Background(), step, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", attempts)
	}

	// Отмена — не исчерпание попыток.
	if errors.Is(err, ErrRetryExhausted) {
		t.Error("cancellation must not match ErrRetryExhausted")
	}
}
