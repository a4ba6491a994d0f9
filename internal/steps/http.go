package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/genxais/pipelined/internal/domain"
)

const (
	// StepTypeProbe — тип шага HTTP-пробы.
	StepTypeProbe = "probe-http"

	// Значения по умолчанию.
	defaultProbeTimeout = 30 * time.Second
	maxResponseBody     = 10 * 1024 * 1024 // 10 MB
)

// Ключи конфигурации probe-http.
const (
	configMethod       = "method"
	configURL          = "url"
	configHeaders      = "headers"
	configTimeoutSec   = "timeout_sec"
	configExpectStatus = "expect_status"
)

// ProbeFactory — фабрика шага HTTP-пробы.
//
// Выполняет запрос к внешнему сервису и возвращает статус и тело.
// Если задан expect_status, несовпадение — ошибка шага (и значит
// предмет retry-политики).
type ProbeFactory struct {
	client *http.Client
}

// NewProbeFactory создаёт новую ProbeFactory.
func NewProbeFactory() *ProbeFactory {
	return &ProbeFactory{
		client: &http.Client{Timeout: defaultProbeTimeout},
	}
}

// Type возвращает тип шага.
func (f *ProbeFactory) Type() string {
	return StepTypeProbe
}

// Build валидирует конфигурацию и возвращает функцию пробы.
func (f *ProbeFactory) Build(config map[string]any) (domain.StepFunc, error) {
	url := GetConfigString(config, configURL)
	if url == "" {
		return nil, fmt.Errorf("%w: %s: url required", ErrInvalidConfig, StepTypeProbe)
	}

	method := strings.ToUpper(GetConfigString(config, configMethod))
	if method == "" {
		method = http.MethodGet
	}

	headers := GetConfigMapString(config, configHeaders)
	expectStatus := GetConfigInt(config, configExpectStatus)

	timeout := defaultProbeTimeout
	if sec := GetConfigInt(config, configTimeoutSec); sec > 0 {
		timeout = time.Duration(sec) * time.Second
	}

	return func(ctx context.Context, _, _ map[string]any) (map[string]any, error) {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, method, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", url, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if expectStatus > 0 && resp.StatusCode != expectStatus {
			return nil, fmt.Errorf("%w: got %d, want %d",
				ErrUnexpectedStatus, resp.StatusCode, expectStatus)
		}

		return map[string]any{
			"status_code": resp.StatusCode,
			"body":        parseBody(resp.Header.Get("Content-Type"), body),
		}, nil
	}, nil
}

// parseBody разбирает JSON-тело; иначе возвращает строку.
func parseBody(contentType string, body []byte) any {
	if strings.Contains(contentType, "application/json") {
		var parsed any
		if err := json.Unmarshal(body, &parsed); err == nil {
			return parsed
		}
	}
	return string(body)
}
