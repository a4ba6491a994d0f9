package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/genxais/pipelined/internal/domain"
)

func TestPipeline_Lifecycle(t *testing.T) {
	p := NewPipeline("demo")

	if p.Status() != domain.StatusPending {
		t.Fatalf("expected PENDING, got %s", p.Status())
	}

	if err := p.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if p.Status() != domain.StatusRunning {
		t.Errorf("expected RUNNING, got %s", p.Status())
	}

	p.StepCompleted("A", 1, map[string]any{"x": 1})
	p.StepCompleted("B", 2, map[string]any{"y": 2})

	if err := p.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if p.Status() != domain.StatusCompleted {
		t.Errorf("expected COMPLETED, got %s", p.Status())
	}

	results := p.Results()
	if results["x"] != 1 || results["y"] != 2 {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestPipeline_ConcurrentExecuteRejected(t *testing.T) {
	p := NewPipeline("demo")

	if err := p.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}

	err := p.Begin()
	if err == nil {
		t.Fatal("expected error for second begin")
	}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	var transErr *InvalidTransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("expected InvalidTransitionError, got %T", err)
	}
	if transErr.From != domain.StatusRunning {
		t.Errorf("expected From=RUNNING, got %s", transErr.From)
	}
}

func TestPipeline_TerminalRequiresReset(t *testing.T) {
	p := NewPipeline("demo")
	p.Begin()
	p.StepCompleted("A", 1, map[string]any{"x": 1})
	p.Fail(domain.LastError{Step: "B", Message: "boom", Time: time.Now()})

	// Терминальный статус — повторный запуск отклоняется.
	if err := p.Begin(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	if le := p.LastError(); le == nil || le.Step != "B" {
		t.Errorf("expected last error for step B, got %+v", le)
	}

	// После сброса — PENDING с пустыми results.
	if err := p.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if p.Status() != domain.StatusPending {
		t.Errorf("expected PENDING after reset, got %s", p.Status())
	}
	if len(p.Results()) != 0 {
		t.Errorf("expected empty results after reset, got %v", p.Results())
	}
	if p.LastError() != nil {
		t.Error("expected nil last error after reset")
	}

	if err := p.Begin(); err != nil {
		t.Errorf("begin after reset: %v", err)
	}
}

func TestPipeline_ResetRequiresTerminal(t *testing.T) {
	p := NewPipeline("demo")

	if err := p.Reset(); !errors.Is(err, ErrNotResettable) {
		t.Errorf("expected ErrNotResettable for PENDING, got %v", err)
	}

	p.Begin()
	if err := p.Reset(); !errors.Is(err, ErrNotResettable) {
		t.Errorf("expected ErrNotResettable for RUNNING, got %v", err)
	}
}

func TestPipeline_PauseResume(t *testing.T) {
	p := NewPipeline("demo")

	// Pause на PENDING — ошибка.
	if err := p.Pause(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	p.Begin()
	if err := p.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if p.Status() != domain.StatusPaused {
		t.Errorf("expected PAUSED, got %s", p.Status())
	}

	// Resume на PAUSED — обратно в RUNNING.
	if err := p.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if p.Status() != domain.StatusRunning {
		t.Errorf("expected RUNNING, got %s", p.Status())
	}

	// Resume на RUNNING — ошибка.
	if err := p.Resume(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestPipeline_AwaitRunningBlocksWhilePaused(t *testing.T) {
	p := NewPipeline("demo")
	p.SetPollInterval(5 * time.Millisecond)
	p.Begin()
	p.Pause()

	resumed := make(chan struct{})
	go func() {
		time.Sleep(30 * time.Millisecond)
		p.Resume()
		close(resumed)
	}()

	if err := p.AwaitRunning(context.Background()); err != nil {
		t.Fatalf("await: %v", err)
	}

	select {
	case <-resumed:
	default:
		t.Error("AwaitRunning returned before resume")
	}
}

func TestPipeline_AwaitRunningHonoursContext(t *testing.T) {
	p := NewPipeline("demo")
	p.SetPollInterval(5 * time.Millisecond)
	p.Begin()
	p.Pause()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := p.AwaitRunning(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestPipeline_Metrics(t *testing.T) {
	p := NewPipeline("demo")
	p.Begin()
	p.StepCompleted("A", 2, map[string]any{"x": 1})
	p.StepHandled("B", 3)
	p.Complete()

	m := p.Metrics(3)
	if m.Name != "demo" || m.Status != domain.StatusCompleted {
		t.Errorf("unexpected snapshot: %+v", m)
	}
	if m.TotalSteps != 3 || m.CompletedSteps != 1 || m.HandledFailures != 1 {
		t.Errorf("unexpected counters: %+v", m)
	}
	if m.Attempts["A"] != 2 || m.Attempts["B"] != 3 {
		t.Errorf("unexpected attempts: %v", m.Attempts)
	}
	if len(m.ResultKeys) != 1 || m.ResultKeys[0] != "x" {
		t.Errorf("unexpected result keys: %v", m.ResultKeys)
	}
	if m.StartedAt == nil || m.FinishedAt == nil {
		t.Error("expected started/finished timestamps")
	}
}
