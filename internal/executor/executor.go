package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/genxais/pipelined/internal/domain"
	"github.com/genxais/pipelined/internal/telemetry"
)

// Executor выполняет шаги конвейера с retry.
type Executor struct {
	logger *slog.Logger

	// sleep подменяется в тестах, чтобы не ждать реальные задержки.
	sleep func(ctx context.Context, d time.Duration) error
}

// Config — конфигурация Executor.
type Config struct {
	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger

	// Sleep — функция ожидания между попытками (default: select
	// по time.After и ctx.Done()). Используется тестами.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New создаёт новый Executor.
func New(cfg Config) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	return &Executor{
		logger: logger,
		sleep:  sleep,
	}
}

// defaultSleep ждёт d с учётом отмены контекста.
func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExecuteWithRetry выполняет шаг до Retry.MaxRetries раз.
//
// Перед попыткой N+1 executor ждёт BaseDelay * N (линейный backoff,
// попытки считаются с 1), но не дольше MaxDelay. На каждую неудачную
// попытку до финальной пишется warning. После исчерпания попыток
// возвращается StepExecutionError с последней ошибкой без изменений.
//
// Возвращает частичный результат шага и количество сделанных попыток.
func (e *Executor) ExecuteWithRetry(ctx context.Context, step *domain.Step, input, state map[string]any) (map[string]any, int, error) {
	policy := step.Retry.Normalized()
	// Отрицательное значение, минувшее валидацию определения,
	// исполняется как одна попытка.
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxRetries; attempt++ {
		telemetry.StepAttemptsTotal.Inc()

		started := time.Now()
		result, err := e.callStep(ctx, step, input, state)
		telemetry.StepDuration.Observe(time.Since(started).Seconds())

		if err == nil {
			return result, attempt, nil
		}
		lastErr = err

		// Финальная попытка — без warning и без задержки.
		if attempt == policy.MaxRetries {
			break
		}

		e.logger.Warn("step attempt failed",
			"step", step.Name,
			"attempt", attempt,
			"max_retries", policy.MaxRetries,
			"error", err,
		)
		telemetry.StepRetriesTotal.Inc()

		delay := policy.Delay(attempt)
		if err := e.sleep(ctx, delay); err != nil {
			// Контекст отменён во время ожидания.
			return nil, attempt, &StepExecutionError{
				Step:     step.Name,
				Attempts: attempt,
				Err:      err,
			}
		}
	}

	return nil, policy.MaxRetries, &StepExecutionError{
		Step:      step.Name,
		Attempts:  policy.MaxRetries,
		Err:       lastErr,
		exhausted: true,
	}
}

// callStep вызывает функцию шага, преобразуя панику в ошибку.
func (e *Executor) callStep(ctx context.Context, step *domain.Step, input, state map[string]any) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStepPanicked, r)
		}
	}()

	return step.Func(ctx, input, state)
}
