package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/genxais/pipelined/internal/domain"
	"github.com/genxais/pipelined/internal/orchestrator"
)

// ListPipelines возвращает список всех конвейеров.
// GET /api/v1/pipelines
func (h *Handler) ListPipelines(w http.ResponseWriter, r *http.Request) {
	snapshots := h.orch.List()

	result := make([]PipelineResponse, len(snapshots))
	for i, m := range snapshots {
		result[i] = PipelineFromDomain(m)
	}

	List(w, result, len(result))
}

// CreatePipeline собирает конвейер из декларативных шагов и регистрирует его.
// POST /api/v1/pipelines
func (h *Handler) CreatePipeline(w http.ResponseWriter, r *http.Request) {
	var req CreatePipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	built := make([]domain.Step, 0, len(req.Steps))
	for _, def := range req.Steps {
		step, err := h.steps.Build(def.Name, def.Type, def.Config,
			def.Requires, def.Provides, def.Retry.ToDomain())
		if HandleError(w, h.logger, err) {
			return
		}
		built = append(built, step)
	}

	if _, err := h.orch.Create(r.Context(), req.Name, built); HandleError(w, h.logger, err) {
		return
	}

	m, err := h.orch.Metrics(req.Name)
	if HandleError(w, h.logger, err) {
		return
	}
	Created(w, PipelineFromDomain(m))
}

// GetPipeline возвращает снимок состояния конвейера.
// GET /api/v1/pipelines/{name}
func (h *Handler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	m, err := h.orch.Metrics(r.PathValue("name"))
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, PipelineFromDomain(m))
}

// DeletePipeline удаляет конвейер из реестра.
// DELETE /api/v1/pipelines/{name}
func (h *Handler) DeletePipeline(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.Delete(r.PathValue("name")); HandleError(w, h.logger, err) {
		return
	}
	NoContent(w)
}

// ExecutePipeline запускает конвейер и ждёт завершения.
// POST /api/v1/pipelines/{name}/execute
//
// Исчерпанный сбой шага — не ошибка HTTP-уровня: конвейер честно
// выполнился и завершился как FAILED, ответ 200 со статусом.
func (h *Handler) ExecutePipeline(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req ExecuteRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			BadRequest(w, "invalid request body")
			return
		}
	}

	results, err := h.orch.Execute(r.Context(), name, req.Input)
	if err != nil {
		var exhausted *orchestrator.RecoveryExhaustedError
		if errors.As(err, &exhausted) {
			Success(w, ExecuteResponse{
				Pipeline: name,
				Status:   domain.StatusFailed,
			})
			return
		}
		if HandleError(w, h.logger, err) {
			return
		}
	}

	Success(w, ExecuteResponse{
		Pipeline: name,
		Status:   domain.StatusCompleted,
		Results:  results,
	})
}

// PausePipeline ставит конвейер на паузу.
// POST /api/v1/pipelines/{name}/pause
func (h *Handler) PausePipeline(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.Pause(r.Context(), r.PathValue("name")); HandleError(w, h.logger, err) {
		return
	}
	NoContent(w)
}

// ResumePipeline снимает конвейер с паузы.
// POST /api/v1/pipelines/{name}/resume
func (h *Handler) ResumePipeline(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.Resume(r.Context(), r.PathValue("name")); HandleError(w, h.logger, err) {
		return
	}
	NoContent(w)
}

// ResetPipeline возвращает завершившийся конвейер в PENDING.
// POST /api/v1/pipelines/{name}/reset
func (h *Handler) ResetPipeline(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.Reset(r.Context(), r.PathValue("name")); HandleError(w, h.logger, err) {
		return
	}
	NoContent(w)
}

// GetPipelineResults возвращает накопленные results.
// GET /api/v1/pipelines/{name}/results
func (h *Handler) GetPipelineResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.orch.Results(r.PathValue("name"))
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, results)
}

// GetPipelineMetrics возвращает полный снимок метрик конвейера,
// включая попытки по шагам.
// GET /api/v1/pipelines/{name}/metrics
func (h *Handler) GetPipelineMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.orch.Metrics(r.PathValue("name"))
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, m)
}

// ListStepTypes возвращает каталог доступных типов шагов.
// GET /api/v1/steps
func (h *Handler) ListStepTypes(w http.ResponseWriter, r *http.Request) {
	types := h.steps.Types()
	List(w, types, len(types))
}
