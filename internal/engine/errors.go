package engine

import "errors"

// Ошибки валидации определения конвейера.
var (
	// ErrEmptySteps — конвейер не содержит шагов.
	ErrEmptySteps = errors.New("pipeline has no steps")

	// ErrEmptyStepName — шаг без имени.
	ErrEmptyStepName = errors.New("step has empty name")

	// ErrDuplicateStepName — несколько шагов с одинаковым именем.
	ErrDuplicateStepName = errors.New("duplicate step name")

	// ErrNilStepFunc — шаг без функции.
	ErrNilStepFunc = errors.New("step has nil function")

	// ErrInvalidRetryPolicy — некорректная политика retry.
	ErrInvalidRetryPolicy = errors.New("invalid retry policy")

	// ErrMissingKey — шаг требует ключ, который не производится
	// ни одним из предыдущих шагов.
	ErrMissingKey = errors.New("required key not produced by earlier steps")
)

// DependencyError — ошибка зависимостей с контекстом.
//
// Именует первый (слева направо) шаг и ключ, нарушившие определение.
// Детерминирована: при нескольких нарушениях всегда сообщается
// самое раннее.
type DependencyError struct {
	Step    string // имя шага, где обнаружено нарушение
	Key     string // отсутствующий ключ (для ErrMissingKey)
	Message string // описание
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *DependencyError) Error() string {
	if e.Step != "" {
		return "step " + e.Step + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *DependencyError) Unwrap() error {
	return e.Err
}

// NewDependencyError создаёт новую ошибку зависимостей.
func NewDependencyError(step, key, message string, err error) *DependencyError {
	return &DependencyError{
		Step:    step,
		Key:     key,
		Message: message,
		Err:     err,
	}
}
