package recovery

import (
	"context"
	"errors"
	"testing"

	"github.com/genxais/pipelined/internal/domain"
)

func TestDispatcher_RecordPersistedEveryCall(t *testing.T) {
	store := NewMemoryStore()
	d := New(Config{Store: store, Roots: Roots{Workdir: t.TempDir()}})

	d.Register(domain.KindNetworkError, func(_ context.Context, _ map[string]any, _ string) (map[string]any, error) {
		return nil, errors.New("still down")
	})
	d.Register(domain.KindStorageFailure, func(_ context.Context, _ map[string]any, _ string) (map[string]any, error) {
		return map[string]any{"ok": true}, nil
	})

	d.Handle(context.Background(), domain.KindNetworkError, nil, "call 1")
	d.Handle(context.Background(), domain.KindStorageFailure, nil, "call 2")
	d.Handle(context.Background(), domain.RecoveryKind("bogus"), nil, "call 3")

	if store.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", store.Len())
	}

	records, err := store.List(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// Новые первыми.
	if records[0].Context != "call 3" || records[2].Context != "call 1" {
		t.Errorf("unexpected order: %s, %s", records[0].Context, records[2].Context)
	}
}

func TestDispatcher_UnknownKindNotAttempted(t *testing.T) {
	store := NewMemoryStore()
	d := New(Config{Store: store, Roots: Roots{Workdir: t.TempDir()}})

	out := d.Handle(context.Background(), domain.RecoveryKind("no-such-kind"), nil, "test")

	if out.Status != OutcomeFailed {
		t.Errorf("expected failed, got %s", out.Status)
	}
	if out.RecoveryAttempted {
		t.Error("expected recovery_attempted=false for unknown kind")
	}
	if out.Record == nil || out.Record.RecoveryAttempted {
		t.Error("record must document that no strategy ran")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", store.Len())
	}
}

func TestDispatcher_SecondaryErrorEmbedded(t *testing.T) {
	store := NewMemoryStore()
	d := New(Config{Store: store, Roots: Roots{Workdir: t.TempDir()}})

	d.Register(domain.KindStorageFailure, func(_ context.Context, _ map[string]any, _ string) (map[string]any, error) {
		return map[string]any{"probe": "backup"}, errors.New("disk unreachable")
	})

	out := d.Handle(context.Background(), domain.KindStorageFailure, nil, "test")

	if out.Status != OutcomeFailed || !out.RecoveryAttempted || out.RecoverySuccessful {
		t.Errorf("unexpected outcome: %+v", out)
	}
	if out.Details["error"] != "disk unreachable" {
		t.Errorf("secondary error not embedded: %v", out.Details)
	}
	if out.Details["probe"] != "backup" {
		t.Errorf("strategy details lost: %v", out.Details)
	}
}

func TestDispatcher_StrategyPanicContained(t *testing.T) {
	store := NewMemoryStore()
	d := New(Config{Store: store, Roots: Roots{Workdir: t.TempDir()}})

	d.Register(domain.KindExecutionError, func(_ context.Context, _ map[string]any, _ string) (map[string]any, error) {
		panic("strategy bug")
	})

	out := d.Handle(context.Background(), domain.KindExecutionError, nil, "test")

	if out.Status != OutcomeFailed {
		t.Errorf("expected failed, got %s", out.Status)
	}
	if !out.RecoveryAttempted || out.RecoverySuccessful {
		t.Errorf("unexpected outcome: %+v", out)
	}
	if store.Len() != 1 {
		t.Fatal("record must be persisted despite panic")
	}
}

func TestDispatcher_SuccessfulRecovery(t *testing.T) {
	store := NewMemoryStore()
	var notified int
	d := New(Config{
		Store:  store,
		Roots:  Roots{Workdir: t.TempDir()},
		Notify: func(*domain.ErrorRecord) { notified++ },
	})

	d.Register(domain.KindMissingCredential, func(_ context.Context, _ map[string]any, _ string) (map[string]any, error) {
		return map[string]any{"found_keys": []string{"API_KEY"}}, nil
	})

	out := d.Handle(context.Background(), domain.KindMissingCredential,
		map[string]any{"hint": "env"}, "unit test")

	if out.Status != OutcomeRecovered || !out.RecoverySuccessful {
		t.Errorf("unexpected outcome: %+v", out)
	}

	rec, err := store.GetByID(context.Background(), out.Record.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !rec.RecoverySuccessful || rec.Kind != domain.KindMissingCredential {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.StackTrace == "" {
		t.Error("expected non-empty stack trace")
	}
	if notified != 1 {
		t.Errorf("expected 1 notification, got %d", notified)
	}
}

func TestDispatcher_DefaultTableCoversAllKinds(t *testing.T) {
	d := New(Config{Roots: Roots{Workdir: t.TempDir()}})

	for _, kind := range domain.KnownKinds() {
		if _, ok := d.strategies[kind]; !ok {
			t.Errorf("no default strategy for %s", kind)
		}
	}
}
