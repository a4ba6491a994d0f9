package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/genxais/pipelined/internal/trigger"
)

// ListTriggers возвращает все триггеры.
// GET /api/v1/triggers
func (h *Handler) ListTriggers(w http.ResponseWriter, r *http.Request) {
	triggers := h.scheduler.Registry().List()

	result := make([]TriggerResponse, len(triggers))
	for i, t := range triggers {
		result[i] = TriggerFromDomain(t)
	}
	List(w, result, len(result))
}

// CreateTrigger регистрирует расписание запуска конвейера.
// POST /api/v1/triggers
func (h *Handler) CreateTrigger(w http.ResponseWriter, r *http.Request) {
	var req CreateTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	// Конвейер должен существовать.
	if _, err := h.orch.Status(req.Pipeline); HandleError(w, h.logger, err) {
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	trg := &trigger.Trigger{
		Pipeline:    req.Pipeline,
		CronExpr:    req.CronExpr,
		IntervalSec: req.IntervalSec,
		Timezone:    req.Timezone,
		Enabled:     enabled,
		Input:       req.Input,
	}
	if err := h.scheduler.Registry().Add(trg); HandleError(w, h.logger, err) {
		return
	}

	Created(w, TriggerFromDomain(*trg))
}

// DeleteTrigger удаляет триггер.
// DELETE /api/v1/triggers/{id}
func (h *Handler) DeleteTrigger(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid trigger id")
		return
	}

	if err := h.scheduler.Registry().Remove(id); HandleError(w, h.logger, err) {
		return
	}
	NoContent(w)
}

// SetTriggerEnabled включает или выключает триггер.
// PUT /api/v1/triggers/{id}/enabled
func (h *Handler) SetTriggerEnabled(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid trigger id")
		return
	}

	var req SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := h.scheduler.Registry().SetEnabled(id, req.Enabled); HandleError(w, h.logger, err) {
		return
	}
	NoContent(w)
}
