package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/genxais/pipelined/internal/executor"
	"github.com/genxais/pipelined/internal/orchestrator"
	"github.com/genxais/pipelined/internal/recovery"
	"github.com/genxais/pipelined/internal/trigger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := orchestrator.New(orchestrator.Config{
		Executor: executor.New(executor.Config{
			Logger: logger,
			Sleep:  func(context.Context, time.Duration) error { return nil },
		}),
		Dispatcher: recovery.New(recovery.Config{
			Logger: logger,
			Roots:  recovery.Roots{Workdir: t.TempDir()},
		}),
		Logger: logger,
	})
	sched := trigger.NewScheduler(trigger.SchedulerConfig{
		Orchestrator: orch,
		Logger:       logger,
	})

	h := NewHandler(Config{
		Orchestrator: orch,
		Scheduler:    sched,
		Logger:       logger,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

func createDelayPipeline(t *testing.T, srv *httptest.Server, name string) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/pipelines", CreatePipelineRequest{
		Name: name,
		Steps: []StepDefRequest{{
			Name:   "wait",
			Type:   "delay",
			Config: map[string]any{"duration_ms": 1},
		}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create pipeline: status %d", resp.StatusCode)
	}
}

func TestAPI_PipelineLifecycle(t *testing.T) {
	srv := newTestServer(t)
	createDelayPipeline(t, srv, "demo")

	// Дубликат имени — 409.
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/pipelines", CreatePipelineRequest{
		Name:  "demo",
		Steps: []StepDefRequest{{Name: "wait", Type: "delay", Config: map[string]any{"duration_ms": 1}}},
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate, got %d", resp.StatusCode)
	}

	// Выполнение.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/pipelines/demo/execute", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("execute: status %d", resp.StatusCode)
	}
	data, _ := body["data"].(map[string]any)
	if data["status"] != "COMPLETED" {
		t.Errorf("expected COMPLETED, got %v", data["status"])
	}

	// Снимок состояния.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/pipelines/demo", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status %d", resp.StatusCode)
	}
	data, _ = body["data"].(map[string]any)
	if data["completed_steps"] != float64(1) {
		t.Errorf("unexpected snapshot: %v", data)
	}

	// Повторный запуск без reset — 422.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/pipelines/demo/execute", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for re-execute, got %d", resp.StatusCode)
	}

	// Reset и повторный запуск.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/pipelines/demo/reset", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("reset: status %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/pipelines/demo/execute", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("execute after reset: status %d", resp.StatusCode)
	}

	// Удаление.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/pipelines/demo", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete: status %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/pipelines/demo", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestAPI_CreateValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	// Неизвестный тип шага — 400.
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/pipelines", CreatePipelineRequest{
		Name:  "bad",
		Steps: []StepDefRequest{{Name: "x", Type: "nope"}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown step type, got %d", resp.StatusCode)
	}

	// Неудовлетворённая зависимость — 400.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/pipelines", CreatePipelineRequest{
		Name: "dep",
		Steps: []StepDefRequest{{
			Name:     "x",
			Type:     "delay",
			Config:   map[string]any{"duration_ms": 1},
			Requires: []string{"missing"},
		}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing dependency, got %d", resp.StatusCode)
	}
}

func TestAPI_ErrorRecords(t *testing.T) {
	srv := newTestServer(t)

	// Неизвестный вид — 400.
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/errors", ReportErrorRequest{
		Kind: "no-such-kind",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown kind, got %d", resp.StatusCode)
	}

	// network-error — стратегия всегда неуспешна, но запись создаётся.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/errors", ReportErrorRequest{
		Kind:    "network-error",
		Context: "integration test",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report: status %d", resp.StatusCode)
	}
	data, _ := body["data"].(map[string]any)
	if data["status"] != "failed" || data["recovery_attempted"] != true {
		t.Errorf("unexpected outcome: %v", data)
	}
	recordID, _ := data["record_id"].(string)
	if recordID == "" {
		t.Fatal("expected record_id")
	}

	// Запись доступна по id и в списке.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/records/"+recordID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get record: status %d", resp.StatusCode)
	}
	data, _ = body["data"].(map[string]any)
	if data["kind"] != "network-error" {
		t.Errorf("unexpected record: %v", data)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/records?kind=network-error", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list records: status %d", resp.StatusCode)
	}
	if body["total"] != float64(1) {
		t.Errorf("expected 1 record, got %v", body["total"])
	}
}

func TestAPI_Triggers(t *testing.T) {
	srv := newTestServer(t)
	createDelayPipeline(t, srv, "scheduled")

	// Триггер на несуществующий конвейер — 404.
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/triggers", CreateTriggerRequest{
		Pipeline:    "ghost",
		IntervalSec: 60,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown pipeline, got %d", resp.StatusCode)
	}

	// Невалидный cron — 400.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/triggers", CreateTriggerRequest{
		Pipeline: "scheduled",
		CronExpr: "bad cron",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad cron, got %d", resp.StatusCode)
	}

	// Валидный триггер.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/triggers", CreateTriggerRequest{
		Pipeline:    "scheduled",
		IntervalSec: 3600,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create trigger: status %d", resp.StatusCode)
	}
	data, _ := body["data"].(map[string]any)
	id, _ := data["id"].(string)
	if id == "" {
		t.Fatal("expected trigger id")
	}

	// Выключение и удаление.
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/v1/triggers/"+id+"/enabled", SetEnabledRequest{Enabled: false})
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("set enabled: status %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/triggers/"+id, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete trigger: status %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/triggers/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for deleted trigger, got %d", resp.StatusCode)
	}
}

func TestAPI_StepCatalog(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/steps", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list steps: status %d", resp.StatusCode)
	}
	if body["total"] != float64(3) {
		t.Errorf("expected 3 step types, got %v", body["total"])
	}
}
