package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// PipelineResponse — снимок конвейера из API.
type PipelineResponse struct {
	Name            string         `json:"name"`
	Status          string         `json:"status"`
	TotalSteps      int            `json:"total_steps"`
	CompletedSteps  int            `json:"completed_steps"`
	HandledFailures int            `json:"handled_failures"`
	Attempts        map[string]int `json:"attempts,omitempty"`
	ResultKeys      []string       `json:"result_keys,omitempty"`
	StartedAt       string         `json:"started_at,omitempty"`
	FinishedAt      string         `json:"finished_at,omitempty"`
	LastError       *LastError     `json:"last_error,omitempty"`
}

// LastError — последняя ошибка конвейера.
type LastError struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

// ExecuteResponse — результат запуска конвейера.
type ExecuteResponse struct {
	Pipeline string         `json:"pipeline"`
	Status   string         `json:"status"`
	Results  map[string]any `json:"results,omitempty"`
}

// RecordResponse — запись об ошибке из API.
type RecordResponse struct {
	ID                 string         `json:"id"`
	Timestamp          string         `json:"timestamp"`
	Kind               string         `json:"kind"`
	Details            map[string]any `json:"details,omitempty"`
	Context            string         `json:"context,omitempty"`
	RecoveryAttempted  bool           `json:"recovery_attempted"`
	RecoverySuccessful bool           `json:"recovery_successful"`
	RecoveryDetails    map[string]any `json:"recovery_details,omitempty"`
}

// OutcomeResponse — исход обработки ошибки.
type OutcomeResponse struct {
	Status             string         `json:"status"`
	RecoveryAttempted  bool           `json:"recovery_attempted"`
	RecoverySuccessful bool           `json:"recovery_successful"`
	Details            map[string]any `json:"details,omitempty"`
	RecordID           string         `json:"record_id"`
}

// TriggerResponse — триггер из API.
type TriggerResponse struct {
	ID          string `json:"id"`
	Pipeline    string `json:"pipeline"`
	CronExpr    string `json:"cron_expr,omitempty"`
	IntervalSec int    `json:"interval_sec,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Enabled     bool   `json:"enabled"`
	NextDueAt   string `json:"next_due_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// --- Request types ---

// StepDef — декларативное описание шага.
type StepDef struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Config   map[string]any `json:"config,omitempty"`
	Requires []string       `json:"requires,omitempty"`
	Provides []string       `json:"provides,omitempty"`
	Retry    *RetryDef      `json:"retry,omitempty"`
}

// RetryDef — retry-политика шага.
type RetryDef struct {
	MaxRetries  int `json:"max_retries,omitempty"`
	BaseDelayMs int `json:"base_delay_ms,omitempty"`
	MaxDelayMs  int `json:"max_delay_ms,omitempty"`
}

// CreatePipelineRequest — создание конвейера.
type CreatePipelineRequest struct {
	Name  string    `json:"name"`
	Steps []StepDef `json:"steps"`
}

// ExecuteRequest — запуск конвейера.
type ExecuteRequest struct {
	Input map[string]any `json:"input,omitempty"`
}

// ReportErrorRequest — обработка ошибки диспетчером.
type ReportErrorRequest struct {
	Kind    string         `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
	Context string         `json:"context,omitempty"`
}

// CreateTriggerRequest — создание триггера.
type CreateTriggerRequest struct {
	Pipeline    string         `json:"pipeline"`
	CronExpr    string         `json:"cron_expr,omitempty"`
	IntervalSec int            `json:"interval_sec,omitempty"`
	Timezone    string         `json:"timezone,omitempty"`
	Enabled     *bool          `json:"enabled,omitempty"`
	Input       map[string]any `json:"input,omitempty"`
}

// ListRecordsOpts — параметры фильтрации записей.
type ListRecordsOpts struct {
	Kind  string
	Limit int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для pipelined API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Pipelines ---

// ListPipelines возвращает все конвейеры.
func (c *Client) ListPipelines() ([]PipelineResponse, error) {
	var pipelines []PipelineResponse
	err := c.list("/api/v1/pipelines", nil, &pipelines)
	return pipelines, err
}

// CreatePipeline регистрирует конвейер.
func (c *Client) CreatePipeline(req CreatePipelineRequest) (*PipelineResponse, error) {
	var p PipelineResponse
	err := c.post("/api/v1/pipelines", req, &p)
	return &p, err
}

// GetPipeline возвращает снимок конвейера.
func (c *Client) GetPipeline(name string) (*PipelineResponse, error) {
	var p PipelineResponse
	err := c.get("/api/v1/pipelines/"+name, &p)
	return &p, err
}

// DeletePipeline удаляет конвейер.
func (c *Client) DeletePipeline(name string) error {
	return c.delete("/api/v1/pipelines/" + name)
}

// ExecutePipeline запускает конвейер и ждёт завершения.
func (c *Client) ExecutePipeline(name string, input map[string]any) (*ExecuteResponse, error) {
	var result ExecuteResponse
	err := c.post("/api/v1/pipelines/"+name+"/execute", ExecuteRequest{Input: input}, &result)
	return &result, err
}

// PausePipeline ставит конвейер на паузу.
func (c *Client) PausePipeline(name string) error {
	return c.post("/api/v1/pipelines/"+name+"/pause", nil, nil)
}

// ResumePipeline снимает конвейер с паузы.
func (c *Client) ResumePipeline(name string) error {
	return c.post("/api/v1/pipelines/"+name+"/resume", nil, nil)
}

// ResetPipeline возвращает конвейер в PENDING.
func (c *Client) ResetPipeline(name string) error {
	return c.post("/api/v1/pipelines/"+name+"/reset", nil, nil)
}

// GetMetrics возвращает полный снимок метрик конвейера.
func (c *Client) GetMetrics(name string) (map[string]any, error) {
	var metrics map[string]any
	err := c.get("/api/v1/pipelines/"+name+"/metrics", &metrics)
	return metrics, err
}

// GetResults возвращает накопленные results конвейера.
func (c *Client) GetResults(name string) (map[string]any, error) {
	var results map[string]any
	err := c.get("/api/v1/pipelines/"+name+"/results", &results)
	return results, err
}

// ListStepTypes возвращает каталог типов шагов.
func (c *Client) ListStepTypes() ([]string, error) {
	var types []string
	err := c.list("/api/v1/steps", nil, &types)
	return types, err
}

// --- Error records ---

// ListRecords возвращает записи об ошибках.
func (c *Client) ListRecords(opts ListRecordsOpts) ([]RecordResponse, error) {
	params := url.Values{}
	if opts.Kind != "" {
		params.Set("kind", opts.Kind)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var records []RecordResponse
	err := c.list("/api/v1/records", params, &records)
	return records, err
}

// GetRecord возвращает запись по ID.
func (c *Client) GetRecord(id string) (*RecordResponse, error) {
	var rec RecordResponse
	err := c.get("/api/v1/records/"+id, &rec)
	return &rec, err
}

// ReportError прогоняет ошибку через диспетчер восстановления.
func (c *Client) ReportError(req ReportErrorRequest) (*OutcomeResponse, error) {
	var outcome OutcomeResponse
	err := c.post("/api/v1/errors", req, &outcome)
	return &outcome, err
}

// --- Triggers ---

// ListTriggers возвращает все триггеры.
func (c *Client) ListTriggers() ([]TriggerResponse, error) {
	var triggers []TriggerResponse
	err := c.list("/api/v1/triggers", nil, &triggers)
	return triggers, err
}

// CreateTrigger регистрирует триггер.
func (c *Client) CreateTrigger(req CreateTriggerRequest) (*TriggerResponse, error) {
	var trg TriggerResponse
	err := c.post("/api/v1/triggers", req, &trg)
	return &trg, err
}

// DeleteTrigger удаляет триггер.
func (c *Client) DeleteTrigger(id string) error {
	return c.delete("/api/v1/triggers/" + id)
}

// SetTriggerEnabled включает или выключает триггер.
func (c *Client) SetTriggerEnabled(id string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.put("/api/v1/triggers/"+id+"/enabled", body, nil)
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
