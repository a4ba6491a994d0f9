package executor

import (
	"errors"
	"fmt"
)

// Ошибки executor'а.
var (
	// ErrRetryExhausted — все попытки retry исчерпаны.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrStepPanicked — функция шага запаниковала.
	ErrStepPanicked = errors.New("step function panicked")
)

// StepExecutionError — сбой шага после исчерпания retry.
//
// Err — последняя ошибка функции шага, без изменений:
// retry не подменяет и не оборачивает её текст.
type StepExecutionError struct {
	Step     string // имя упавшего шага
	Attempts int    // количество сделанных попыток
	Err      error  // последняя ошибка

	// exhausted: попытки закончились. false — выполнение прервала
	// отмена контекста во время ожидания между попытками.
	exhausted bool
}

// Error реализует интерфейс error.
func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %s failed after %d attempt(s): %v", e.Step, e.Attempts, e.Err)
}

// Unwrap возвращает последнюю ошибку шага.
func (e *StepExecutionError) Unwrap() error {
	return e.Err
}

// Is сопоставляет ошибку с ErrRetryExhausted, если сбой вызван
// именно исчерпанием попыток.
func (e *StepExecutionError) Is(target error) bool {
	return target == ErrRetryExhausted && e.exhausted
}
