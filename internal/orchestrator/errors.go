package orchestrator

import (
	"errors"
	"fmt"
)

// Ошибки оркестратора.
var (
	// ErrEmptyPipelineName — имя конвейера пустое.
	ErrEmptyPipelineName = errors.New("pipeline name is empty")

	// ErrDuplicatePipeline — конвейер с таким именем уже зарегистрирован.
	ErrDuplicatePipeline = errors.New("pipeline already registered")

	// ErrPipelineNotFound — конвейер не найден в реестре.
	ErrPipelineNotFound = errors.New("pipeline not found")

	// ErrPipelineActive — конвейер выполняется или на паузе.
	ErrPipelineActive = errors.New("pipeline is active")
)

// RecoveryExhaustedError — шаг исчерпал retry, обработчики шага
// не справились и диспетчер восстановления не вернул успеха.
type RecoveryExhaustedError struct {
	Pipeline string
	Step     string
	Attempts int
	Err      error
}

func (e *RecoveryExhaustedError) Error() string {
	return fmt.Sprintf("pipeline %q failed at step %q after %d attempt(s): %v",
		e.Pipeline, e.Step, e.Attempts, e.Err)
}

func (e *RecoveryExhaustedError) Unwrap() error {
	return e.Err
}
