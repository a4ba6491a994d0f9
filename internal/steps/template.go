package steps

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/genxais/pipelined/internal/domain"
)

const (
	// StepTypeTemplate — тип шага рендеринга шаблонов.
	StepTypeTemplate = "template"

	// Ключ конфигурации.
	configMappings = "mappings"
)

// templateData — данные, доступные в шаблонах.
type templateData struct {
	// Input — входные данные запуска конвейера.
	Input map[string]any

	// Results — накопленные results предыдущих шагов.
	Results map[string]any
}

// TemplateFactory — фабрика шага трансформации данных.
//
// Применяет Go templates для преобразования input и результатов
// предыдущих шагов в новые значения.
type TemplateFactory struct{}

// NewTemplateFactory создаёт новую TemplateFactory.
func NewTemplateFactory() *TemplateFactory {
	return &TemplateFactory{}
}

// Type возвращает тип шага.
func (f *TemplateFactory) Type() string {
	return StepTypeTemplate
}

// Build парсит все шаблоны заранее: ошибка синтаксиса обнаруживается
// при сборке конвейера, а не на N-м запуске.
func (f *TemplateFactory) Build(config map[string]any) (domain.StepFunc, error) {
	mappings := GetConfigMapString(config, configMappings)
	if len(mappings) == 0 {
		return nil, fmt.Errorf("%w: %s: mappings required",
			ErrInvalidConfig, StepTypeTemplate)
	}

	parsed := make(map[string]*template.Template, len(mappings))
	for key, text := range mappings {
		tmpl, err := template.New(key).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: parse mapping %q: %v",
				ErrInvalidConfig, StepTypeTemplate, key, err)
		}
		parsed[key] = tmpl
	}

	return func(ctx context.Context, input, results map[string]any) (map[string]any, error) {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
		default:
		}

		data := templateData{Input: input, Results: results}
		out := make(map[string]any, len(parsed))

		for key, tmpl := range parsed {
			var buf strings.Builder
			if err := tmpl.Execute(&buf, data); err != nil {
				return nil, fmt.Errorf("render mapping %q: %w", key, err)
			}
			out[key] = buf.String()
		}
		return out, nil
	}, nil
}
