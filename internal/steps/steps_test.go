package steps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/genxais/pipelined/internal/domain"
)

func TestRegistry_DefaultTypes(t *testing.T) {
	r := DefaultRegistry()

	for _, typ := range []string{StepTypeDelay, StepTypeTemplate, StepTypeProbe} {
		if !r.Has(typ) {
			t.Errorf("expected %s in default registry", typ)
		}
	}

	if _, err := r.Get("nope"); !errors.Is(err, ErrFactoryNotFound) {
		t.Errorf("expected ErrFactoryNotFound, got %v", err)
	}

	types := r.Types()
	if len(types) != 3 {
		t.Errorf("unexpected types: %v", types)
	}
}

func TestRegistry_Build(t *testing.T) {
	r := DefaultRegistry()

	step, err := r.Build("wait", StepTypeDelay,
		map[string]any{"duration_ms": 1},
		nil, []string{"delayed_ms"},
		domain.RetryPolicy{MaxRetries: 2},
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if step.Name != "wait" || step.Func == nil || step.Retry.MaxRetries != 2 {
		t.Errorf("unexpected step: %+v", step)
	}

	if _, err := r.Build("x", "nope", nil, nil, nil, domain.RetryPolicy{}); !errors.Is(err, ErrFactoryNotFound) {
		t.Errorf("expected ErrFactoryNotFound, got %v", err)
	}
}

func TestDelay_ConfigRequired(t *testing.T) {
	f := NewDelayFactory()
	if _, err := f.Build(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestDelay_RespectsCancellation(t *testing.T) {
	f := NewDelayFactory()
	fn, err := f.Build(map[string]any{"duration_sec": 30})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = fn(ctx, nil, nil)
	if !errors.Is(err, ErrStepCancelled) {
		t.Errorf("expected ErrStepCancelled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("delay did not honour context cancellation")
	}
}

func TestDelay_Completes(t *testing.T) {
	f := NewDelayFactory()
	fn, err := f.Build(map[string]any{"duration_ms": 5})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	out, err := fn(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("delay: %v", err)
	}
	if out["delayed_ms"] != int64(5) {
		t.Errorf("unexpected output: %v", out)
	}
}

func TestTemplate_Renders(t *testing.T) {
	f := NewTemplateFactory()
	fn, err := f.Build(map[string]any{
		"mappings": map[string]any{
			"greeting": "hello, {{ .Input.name }}",
			"doubled":  "{{ .Results.count }}{{ .Results.count }}",
		},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	out, err := fn(context.Background(),
		map[string]any{"name": "world"},
		map[string]any{"count": 7},
	)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out["greeting"] != "hello, world" || out["doubled"] != "77" {
		t.Errorf("unexpected output: %v", out)
	}
}

func TestTemplate_BadSyntaxFailsAtBuild(t *testing.T) {
	f := NewTemplateFactory()
	_, err := f.Build(map[string]any{
		"mappings": map[string]any{"broken": "{{ .Input."},
	})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	if _, err := f.Build(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for empty mappings, got %v", err)
	}
}

func TestProbe_StatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Token") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	f := NewProbeFactory()
	fn, err := f.Build(map[string]any{
		"url":           srv.URL,
		"headers":       map[string]any{"X-Token": "secret"},
		"expect_status": 200,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	out, err := fn(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if out["status_code"] != 200 {
		t.Errorf("unexpected status: %v", out["status_code"])
	}
	body, ok := out["body"].(map[string]any)
	if !ok || body["ok"] != true {
		t.Errorf("unexpected body: %v", out["body"])
	}
}

func TestProbe_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewProbeFactory()
	fn, err := f.Build(map[string]any{"url": srv.URL, "expect_status": 200})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, err := fn(context.Background(), nil, nil); !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestProbe_URLRequired(t *testing.T) {
	f := NewProbeFactory()
	if _, err := f.Build(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
