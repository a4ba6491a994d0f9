package steps

import (
	"errors"

	"github.com/genxais/pipelined/internal/domain"
)

// Ошибки шагов.
var (
	// ErrFactoryNotFound — тип шага не найден в реестре.
	ErrFactoryNotFound = errors.New("step type not found")

	// ErrInvalidConfig — невалидная конфигурация шага.
	ErrInvalidConfig = errors.New("invalid step config")

	// ErrStepCancelled — выполнение шага отменено.
	ErrStepCancelled = errors.New("step execution cancelled")

	// ErrUnexpectedStatus — HTTP статус не совпал с ожидаемым.
	ErrUnexpectedStatus = errors.New("unexpected http status")
)

// Factory строит исполняемую функцию шага из конфигурации.
type Factory interface {
	// Type возвращает тип шага.
	Type() string

	// Build валидирует конфигурацию и возвращает функцию шага.
	Build(config map[string]any) (domain.StepFunc, error)
}

// GetConfigString извлекает строковое значение из конфига.
func GetConfigString(config map[string]any, key string) string {
	if v, ok := config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetConfigInt извлекает числовое значение из конфига.
func GetConfigInt(config map[string]any, key string) int {
	if v, ok := config[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}

// GetConfigMapString извлекает map[string]string из конфига.
func GetConfigMapString(config map[string]any, key string) map[string]string {
	if v, ok := config[key]; ok {
		switch m := v.(type) {
		case map[string]string:
			return m
		case map[string]any:
			result := make(map[string]string)
			for k, val := range m {
				if s, ok := val.(string); ok {
					result[k] = s
				}
			}
			return result
		}
	}
	return nil
}
