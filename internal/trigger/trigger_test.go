package trigger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/genxais/pipelined/internal/domain"
	"github.com/genxais/pipelined/internal/orchestrator"
)

func TestRegistry_AddValidates(t *testing.T) {
	r := NewRegistry()

	if err := r.Add(&Trigger{Pipeline: "p"}); !errors.Is(err, ErrInvalidTrigger) {
		t.Errorf("expected ErrInvalidTrigger, got %v", err)
	}

	if err := r.Add(&Trigger{Pipeline: "p", CronExpr: "not a cron"}); err == nil {
		t.Error("expected error for bad cron expression")
	}

	trg := &Trigger{Pipeline: "p", IntervalSec: 60, Enabled: true}
	if err := r.Add(trg); err != nil {
		t.Fatalf("add: %v", err)
	}
	if trg.ID.String() == "" || trg.NextDueAt.IsZero() {
		t.Errorf("expected ID and next_due_at to be set: %+v", trg)
	}
	// Интервальный триггер не должен быть due сразу.
	if len(r.due(time.Now())) != 0 {
		t.Error("fresh interval trigger must not be due")
	}

	if err := r.Remove(trg.ID); err != nil {
		t.Errorf("remove: %v", err)
	}
	if err := r.Remove(trg.ID); !errors.Is(err, ErrTriggerNotFound) {
		t.Errorf("expected ErrTriggerNotFound, got %v", err)
	}
}

func TestCalculateNextDue_Cron(t *testing.T) {
	trg := &Trigger{CronExpr: "0 12 * * *", Timezone: "UTC"}
	from := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	next, err := CalculateNextDue(trg, from)
	if err != nil {
		t.Fatalf("next due: %v", err)
	}
	want := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %s, got %s", want, next)
	}
}

func TestCalculateNextDue_Interval(t *testing.T) {
	trg := &Trigger{IntervalSec: 300}
	from := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(trg, from)
	if err != nil {
		t.Fatalf("next due: %v", err)
	}
	if got := next.Sub(from); got != 5*time.Minute {
		t.Errorf("expected +5m, got %s", got)
	}
}

func TestScheduler_TickFiresDueTrigger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := orchestrator.New(orchestrator.Config{Logger: logger})
	ctx := context.Background()

	ran := make(chan struct{}, 1)
	_, err := orch.Create(ctx, "scheduled", []domain.Step{{
		Name: "work",
		Func: func(_ context.Context, _, _ map[string]any) (map[string]any, error) {
			ran <- struct{}{}
			return nil, nil
		},
	}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sched := NewScheduler(SchedulerConfig{Orchestrator: orch, Logger: logger})

	trg := &Trigger{Pipeline: "scheduled", IntervalSec: 3600, Enabled: true}
	if err := sched.Registry().Add(trg); err != nil {
		t.Fatalf("add trigger: %v", err)
	}

	// Тик раньше next_due_at — ничего не происходит.
	sched.Tick(ctx, time.Now())
	select {
	case <-ran:
		t.Fatal("trigger fired before due")
	case <-time.After(50 * time.Millisecond):
	}

	// Тик после next_due_at — конвейер запускается.
	before := trg.NextDueAt
	sched.Tick(ctx, time.Now().Add(2*time.Hour))
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("trigger never fired")
	}
	if !trg.NextDueAt.After(before) {
		t.Error("next_due_at must advance after firing")
	}
}

func TestScheduler_DisabledTriggerSkipped(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := orchestrator.New(orchestrator.Config{Logger: logger})
	ctx := context.Background()

	ran := make(chan struct{}, 1)
	_, err := orch.Create(ctx, "idle", []domain.Step{{
		Name: "work",
		Func: func(_ context.Context, _, _ map[string]any) (map[string]any, error) {
			ran <- struct{}{}
			return nil, nil
		},
	}})
	if err != nil {
		t.Fatalf("create pipeline: %v", err)
	}

	sched := NewScheduler(SchedulerConfig{Orchestrator: orch, Logger: logger})
	trg := &Trigger{Pipeline: "idle", IntervalSec: 1, Enabled: false}
	if err := sched.Registry().Add(trg); err != nil {
		t.Fatalf("add trigger: %v", err)
	}

	sched.Tick(ctx, time.Now().Add(time.Minute))
	select {
	case <-ran:
		t.Fatal("disabled trigger fired")
	case <-time.After(50 * time.Millisecond):
	}

	if err := sched.Registry().SetEnabled(trg.ID, true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	sched.Tick(ctx, time.Now().Add(time.Minute))
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("enabled trigger never fired")
	}
}
