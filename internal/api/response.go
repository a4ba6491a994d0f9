package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/genxais/pipelined/internal/engine"
	"github.com/genxais/pipelined/internal/orchestrator"
	"github.com/genxais/pipelined/internal/recovery"
	"github.com/genxais/pipelined/internal/repo"
	"github.com/genxais/pipelined/internal/state"
	"github.com/genxais/pipelined/internal/steps"
	"github.com/genxais/pipelined/internal/trigger"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInvalidState  ErrorCode = "INVALID_STATE"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total,omitempty"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Created отправляет ответ о создании ресурса.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, DataResponse{Data: data})
}

// NoContent отправляет ответ без тела (204).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict отправляет ошибку 409.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, ErrCodeConflict, message)
}

// InvalidState отправляет ошибку 422.
func InvalidState(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnprocessableEntity, ErrCodeInvalidState, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleError преобразует доменную ошибку в HTTP ответ.
//
// Маппинг:
//   - не найдено (конвейер, триггер, запись)      → 404
//   - дубликат имени                              → 409
//   - ошибка валидации или конфигурации           → 400
//   - недопустимый переход статуса                → 422
//   - остальное                                   → 500
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, orchestrator.ErrPipelineNotFound),
		errors.Is(err, trigger.ErrTriggerNotFound),
		errors.Is(err, recovery.ErrRecordNotFound),
		errors.Is(err, repo.ErrNotFound):
		NotFound(w, err.Error())

	case errors.Is(err, orchestrator.ErrDuplicatePipeline):
		Conflict(w, err.Error())

	case isValidationError(err):
		BadRequest(w, err.Error())

	case errors.Is(err, state.ErrInvalidTransition),
		errors.Is(err, state.ErrNotResettable),
		errors.Is(err, orchestrator.ErrPipelineActive):
		InvalidState(w, err.Error())

	default:
		InternalError(w, logger, err)
	}
	return true
}

// isValidationError — ошибки определения конвейера и конфигурации шагов.
func isValidationError(err error) bool {
	var depErr *engine.DependencyError
	if errors.As(err, &depErr) {
		return true
	}
	return errors.Is(err, engine.ErrEmptySteps) ||
		errors.Is(err, engine.ErrEmptyStepName) ||
		errors.Is(err, engine.ErrDuplicateStepName) ||
		errors.Is(err, engine.ErrNilStepFunc) ||
		errors.Is(err, engine.ErrInvalidRetryPolicy) ||
		errors.Is(err, orchestrator.ErrEmptyPipelineName) ||
		errors.Is(err, steps.ErrInvalidConfig) ||
		errors.Is(err, steps.ErrFactoryNotFound) ||
		errors.Is(err, trigger.ErrInvalidTrigger)
}
