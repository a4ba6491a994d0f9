package engine

import (
	"fmt"

	"github.com/genxais/pipelined/internal/domain"
)

// Validate проверяет определение конвейера.
//
// Проверки:
//  1. Структурные: непустой список шагов, непустые уникальные имена,
//     ненулевые функции, MaxRetries ≥ 1. Валидатор ожидает политику
//     с уже заполненными дефолтами (RetryPolicy.Normalized).
//  2. Зависимости: один проход слева направо с растущим множеством
//     produced; каждый ключ из requires шага должен уже находиться
//     в produced. Первое нарушение немедленно возвращается как
//     DependencyError с именем шага и ключа.
//
// Побочных эффектов нет — чистая проверка.
func Validate(steps []domain.Step) error {
	if len(steps) == 0 {
		return NewDependencyError("", "", "pipeline has no steps", ErrEmptySteps)
	}

	seen := make(map[string]bool, len(steps))
	for i := range steps {
		step := &steps[i]

		if step.Name == "" {
			return NewDependencyError("", "",
				fmt.Sprintf("step at position %d has empty name", i), ErrEmptyStepName)
		}
		if seen[step.Name] {
			return NewDependencyError(step.Name, "",
				fmt.Sprintf("duplicate step name %q", step.Name), ErrDuplicateStepName)
		}
		seen[step.Name] = true

		if step.Func == nil {
			return NewDependencyError(step.Name, "",
				"step has nil function", ErrNilStepFunc)
		}
		if step.Retry.MaxRetries < 1 {
			return NewDependencyError(step.Name, "",
				fmt.Sprintf("max_retries must be >= 1, got %d", step.Retry.MaxRetries),
				ErrInvalidRetryPolicy)
		}
	}

	// Проход по зависимостям: produced растёт по мере обхода.
	produced := make(map[string]bool)
	for i := range steps {
		step := &steps[i]

		for _, key := range step.Requires {
			if !produced[key] {
				return NewDependencyError(step.Name, key,
					fmt.Sprintf("requires key %q not produced by any earlier step", key),
					ErrMissingKey)
			}
		}

		for _, key := range step.Provides {
			produced[key] = true
		}
	}

	return nil
}
