package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/genxais/pipelined/internal/domain"
	"github.com/genxais/pipelined/internal/trigger"
)

// Pipeline DTOs

// StepDefRequest — декларативное описание одного шага.
type StepDefRequest struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Config   map[string]any `json:"config,omitempty"`
	Requires []string       `json:"requires,omitempty"`
	Provides []string       `json:"provides,omitempty"`
	Retry    *RetryRequest  `json:"retry,omitempty"`
}

// RetryRequest — retry-политика шага.
type RetryRequest struct {
	MaxRetries  int `json:"max_retries,omitempty"`
	BaseDelayMs int `json:"base_delay_ms,omitempty"`
	MaxDelayMs  int `json:"max_delay_ms,omitempty"`
}

// ToDomain конвертирует RetryRequest в domain.RetryPolicy.
func (r *RetryRequest) ToDomain() domain.RetryPolicy {
	if r == nil {
		return domain.RetryPolicy{}
	}
	return domain.RetryPolicy{
		MaxRetries: r.MaxRetries,
		BaseDelay:  time.Duration(r.BaseDelayMs) * time.Millisecond,
		MaxDelay:   time.Duration(r.MaxDelayMs) * time.Millisecond,
	}
}

// CreatePipelineRequest — запрос на создание конвейера.
type CreatePipelineRequest struct {
	Name  string           `json:"name"`
	Steps []StepDefRequest `json:"steps"`
}

// ExecuteRequest — запрос на запуск конвейера.
type ExecuteRequest struct {
	Input map[string]any `json:"input,omitempty"`
}

// LastErrorResponse — последняя ошибка конвейера.
type LastErrorResponse struct {
	Step    string    `json:"step"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// PipelineResponse — снимок состояния конвейера.
type PipelineResponse struct {
	Name            string             `json:"name"`
	Status          domain.Status      `json:"status"`
	TotalSteps      int                `json:"total_steps"`
	CompletedSteps  int                `json:"completed_steps"`
	HandledFailures int                `json:"handled_failures"`
	Attempts        map[string]int     `json:"attempts,omitempty"`
	ResultKeys      []string           `json:"result_keys,omitempty"`
	StartedAt       *time.Time         `json:"started_at,omitempty"`
	FinishedAt      *time.Time         `json:"finished_at,omitempty"`
	LastError       *LastErrorResponse `json:"last_error,omitempty"`
}

// PipelineFromDomain конвертирует domain.PipelineMetrics в PipelineResponse.
func PipelineFromDomain(m domain.PipelineMetrics) PipelineResponse {
	resp := PipelineResponse{
		Name:            m.Name,
		Status:          m.Status,
		TotalSteps:      m.TotalSteps,
		CompletedSteps:  m.CompletedSteps,
		HandledFailures: m.HandledFailures,
		Attempts:        m.Attempts,
		ResultKeys:      m.ResultKeys,
		StartedAt:       m.StartedAt,
		FinishedAt:      m.FinishedAt,
	}
	if m.LastError != nil {
		resp.LastError = &LastErrorResponse{
			Step:    m.LastError.Step,
			Message: m.LastError.Message,
			Time:    m.LastError.Time,
		}
	}
	return resp
}

// ExecuteResponse — результат запуска конвейера.
type ExecuteResponse struct {
	Pipeline string         `json:"pipeline"`
	Status   domain.Status  `json:"status"`
	Results  map[string]any `json:"results,omitempty"`
}

// Error record DTOs

// ReportErrorRequest — запрос на обработку ошибки диспетчером.
type ReportErrorRequest struct {
	Kind    string         `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
	Context string         `json:"context,omitempty"`
}

// RecordResponse — запись об ошибке.
type RecordResponse struct {
	ID                 uuid.UUID           `json:"id"`
	Timestamp          time.Time           `json:"timestamp"`
	Kind               domain.RecoveryKind `json:"kind"`
	Details            map[string]any      `json:"details,omitempty"`
	Context            string              `json:"context,omitempty"`
	RecoveryAttempted  bool                `json:"recovery_attempted"`
	RecoverySuccessful bool                `json:"recovery_successful"`
	RecoveryDetails    map[string]any      `json:"recovery_details,omitempty"`
}

// RecordFromDomain конвертирует domain.ErrorRecord в RecordResponse.
// StackTrace наружу не отдаётся.
func RecordFromDomain(rec domain.ErrorRecord) RecordResponse {
	return RecordResponse{
		ID:                 rec.ID,
		Timestamp:          rec.Timestamp,
		Kind:               rec.Kind,
		Details:            rec.Details,
		Context:            rec.Context,
		RecoveryAttempted:  rec.RecoveryAttempted,
		RecoverySuccessful: rec.RecoverySuccessful,
		RecoveryDetails:    rec.RecoveryDetails,
	}
}

// OutcomeResponse — исход обработки ошибки.
type OutcomeResponse struct {
	Status             string         `json:"status"`
	RecoveryAttempted  bool           `json:"recovery_attempted"`
	RecoverySuccessful bool           `json:"recovery_successful"`
	Details            map[string]any `json:"details,omitempty"`
	RecordID           uuid.UUID      `json:"record_id"`
}

// Trigger DTOs

// CreateTriggerRequest — запрос на создание триггера.
type CreateTriggerRequest struct {
	Pipeline    string         `json:"pipeline"`
	CronExpr    string         `json:"cron_expr,omitempty"`
	IntervalSec int            `json:"interval_sec,omitempty"`
	Timezone    string         `json:"timezone,omitempty"`
	Enabled     *bool          `json:"enabled,omitempty"`
	Input       map[string]any `json:"input,omitempty"`
}

// SetEnabledRequest — запрос на включение/выключение триггера.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// TriggerResponse — триггер.
type TriggerResponse struct {
	ID          uuid.UUID `json:"id"`
	Pipeline    string    `json:"pipeline"`
	CronExpr    string    `json:"cron_expr,omitempty"`
	IntervalSec int       `json:"interval_sec,omitempty"`
	Timezone    string    `json:"timezone,omitempty"`
	Enabled     bool      `json:"enabled"`
	NextDueAt   time.Time `json:"next_due_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// TriggerFromDomain конвертирует trigger.Trigger в TriggerResponse.
func TriggerFromDomain(t trigger.Trigger) TriggerResponse {
	return TriggerResponse{
		ID:          t.ID,
		Pipeline:    t.Pipeline,
		CronExpr:    t.CronExpr,
		IntervalSec: t.IntervalSec,
		Timezone:    t.Timezone,
		Enabled:     t.Enabled,
		NextDueAt:   t.NextDueAt,
		CreatedAt:   t.CreatedAt,
	}
}
