package domain

import (
	"context"
	"time"
)

// Значения по умолчанию для RetryPolicy.
const (
	// DefaultMaxRetries — количество попыток по умолчанию.
	DefaultMaxRetries = 3

	// DefaultBaseDelay — базовая задержка между попытками.
	DefaultBaseDelay = time.Second

	// DefaultMaxDelay — потолок задержки. Линейный backoff
	// (BaseDelay * attempt) без потолка растёт неограниченно,
	// поэтому задержка всегда ограничивается сверху.
	DefaultMaxDelay = 30 * time.Second
)

// StepFunc — функция шага конвейера.
//
// Получает входные данные запуска, снимок накопленных результатов
// (read-only копию) и возвращает частичный результат — маппинг,
// который будет слит в results конвейера. Ключи, которые шаг
// обещает добавить, перечислены в Step.Provides.
type StepFunc func(ctx context.Context, input, state map[string]any) (map[string]any, error)

// ErrorHandler — обработчик ошибки шага.
//
// Вызывается после исчерпания retry. Успех = возврат nil:
// ошибка считается обработанной, и конвейер продолжает выполнение
// со следующего шага (results не меняются).
type ErrorHandler func(ctx context.Context, stepErr error, step *Step, input, state map[string]any) error

// RetryPolicy — политика повторных попыток шага.
type RetryPolicy struct {
	// MaxRetries — максимальное количество попыток (включая первую).
	// Минимум 1.
	MaxRetries int `json:"max_retries"`

	// BaseDelay — базовая задержка. Перед попыткой N+1 executor
	// ждёт BaseDelay * N (линейный backoff).
	BaseDelay time.Duration `json:"base_delay"`

	// MaxDelay — максимальная задержка между попытками.
	MaxDelay time.Duration `json:"max_delay"`
}

// Normalized возвращает копию политики с заполненными значениями
// по умолчанию для нулевых полей. Отрицательный MaxRetries не
// подменяется: это некорректное значение, его отклоняет валидация.
func (p RetryPolicy) Normalized() RetryPolicy {
	if p.MaxRetries == 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	return p
}

// Delay вычисляет задержку перед следующей попыткой.
// attempt — номер только что провалившейся попытки (с 1).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay * time.Duration(attempt)
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Step — шаг конвейера.
type Step struct {
	// Name — имя шага, уникальное в рамках конвейера.
	Name string `json:"name"`

	// Func — выполняемая функция шага.
	Func StepFunc `json:"-"`

	// Requires — ключи результатов, которые должны присутствовать
	// в накопленном состоянии к моменту выполнения шага.
	Requires []string `json:"requires,omitempty"`

	// Provides — ключи, которые шаг обещает добавить в results.
	Provides []string `json:"provides,omitempty"`

	// Retry — политика повторных попыток.
	Retry RetryPolicy `json:"retry"`

	// ErrorHandlers — обработчики ошибок шага в порядке объявления.
	// Первый завершившийся без ошибки считается обработавшим сбой.
	ErrorHandlers []ErrorHandler `json:"-"`
}

// Pipeline — определение конвейера.
//
// Определение неизменяемо после создания: реестр хранит собственную
// копию шагов, и никакая операция не модифицирует их на месте.
type Pipeline struct {
	// Name — уникальное имя конвейера (ключ в реестре).
	Name string `json:"name"`

	// Steps — упорядоченная последовательность шагов.
	// Порядок объявления — это порядок выполнения.
	Steps []Step `json:"steps"`

	// CreatedAt — время создания определения.
	CreatedAt time.Time `json:"created_at"`
}

// CloneSteps возвращает глубокую (по слайсам) копию шагов.
// Используется реестром, чтобы определение не делило память
// с данными вызывающего кода.
func CloneSteps(steps []Step) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		c := s
		c.Requires = append([]string(nil), s.Requires...)
		c.Provides = append([]string(nil), s.Provides...)
		c.ErrorHandlers = append([]ErrorHandler(nil), s.ErrorHandlers...)
		c.Retry = s.Retry.Normalized()
		out[i] = c
	}
	return out
}

// LastError — структурированная запись о последней ошибке конвейера.
type LastError struct {
	// Step — имя упавшего шага.
	Step string `json:"step"`

	// Message — текст ошибки.
	Message string `json:"message"`

	// Time — время сбоя.
	Time time.Time `json:"time"`
}

// PipelineMetrics — снимок метрик выполнения конвейера.
type PipelineMetrics struct {
	// Name — имя конвейера.
	Name string `json:"name"`

	// Status — текущий статус.
	Status Status `json:"status"`

	// TotalSteps — общее количество шагов в определении.
	TotalSteps int `json:"total_steps"`

	// CompletedSteps — количество успешно завершённых шагов.
	CompletedSteps int `json:"completed_steps"`

	// HandledFailures — количество сбоев, погашенных обработчиками шагов.
	HandledFailures int `json:"handled_failures"`

	// Attempts — количество попыток по шагам (имя шага → попытки).
	Attempts map[string]int `json:"attempts,omitempty"`

	// ResultKeys — ключи, накопленные в results.
	ResultKeys []string `json:"result_keys,omitempty"`

	// StartedAt — время старта текущего (или последнего) запуска.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения запуска.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// LastError — последняя ошибка, если запуск завершился с FAILED.
	LastError *LastError `json:"last_error,omitempty"`
}
