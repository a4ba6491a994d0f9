package state

import (
	"errors"
	"fmt"

	"github.com/genxais/pipelined/internal/domain"
)

// Ошибки менеджера состояния.
var (
	// ErrInvalidTransition — недопустимый переход статусов.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotResettable — сброс возможен только из терминального статуса.
	ErrNotResettable = errors.New("pipeline is not in a terminal status")
)

// InvalidTransitionError — недопустимый переход с контекстом.
//
// Например, execute на конвейере, который уже RUNNING,
// или pause на конвейере, который не выполняется.
type InvalidTransitionError struct {
	Pipeline string        // имя конвейера
	From     domain.Status // текущий статус
	To       domain.Status // запрошенный статус
}

// Error реализует интерфейс error.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("pipeline %s: invalid transition %s -> %s", e.Pipeline, e.From, e.To)
}

// Unwrap возвращает базовую ошибку.
func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
