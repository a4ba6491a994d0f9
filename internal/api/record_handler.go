package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/genxais/pipelined/internal/domain"
)

// defaultRecordsLimit — лимит списка записей по умолчанию.
const defaultRecordsLimit = 50

// ListRecords возвращает записи об ошибках, новые первыми.
// GET /api/v1/records?kind=...&limit=...
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	var kind domain.RecoveryKind
	if kindStr := r.URL.Query().Get("kind"); kindStr != "" {
		parsed, err := domain.ParseRecoveryKind(kindStr)
		if err != nil {
			BadRequest(w, "unknown kind: "+kindStr)
			return
		}
		kind = parsed
	}

	limit := defaultRecordsLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	records, err := h.orch.Dispatcher().Store().List(r.Context(), kind, limit)
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]RecordResponse, len(records))
	for i, rec := range records {
		result[i] = RecordFromDomain(rec)
	}
	List(w, result, len(result))
}

// GetRecord возвращает запись по идентификатору.
// GET /api/v1/records/{id}
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid record id")
		return
	}

	rec, err := h.orch.Dispatcher().Store().GetByID(r.Context(), id)
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, RecordFromDomain(*rec))
}

// ReportError прогоняет классифицированную ошибку через диспетчер.
// POST /api/v1/errors
//
// Позволяет внешним компонентам пользоваться восстановлением
// и журналом без участия конвейеров.
func (h *Handler) ReportError(w http.ResponseWriter, r *http.Request) {
	var req ReportErrorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	kind, err := domain.ParseRecoveryKind(req.Kind)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	outcome := h.orch.Dispatcher().Handle(r.Context(), kind, req.Details, req.Context)

	Success(w, OutcomeResponse{
		Status:             outcome.Status,
		RecoveryAttempted:  outcome.RecoveryAttempted,
		RecoverySuccessful: outcome.RecoverySuccessful,
		Details:            outcome.Details,
		RecordID:           outcome.Record.ID,
	})
}
