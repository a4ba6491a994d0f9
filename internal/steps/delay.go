package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/genxais/pipelined/internal/domain"
)

const (
	// StepTypeDelay — тип шага задержки.
	StepTypeDelay = "delay"

	// Ключи конфигурации delay.
	configDurationSec = "duration_sec"
	configDurationMs  = "duration_ms"
)

// DelayFactory — фабрика шага задержки.
//
// Приостанавливает выполнение на указанное время.
// Поддерживает graceful shutdown через context cancellation.
type DelayFactory struct{}

// NewDelayFactory создаёт новую DelayFactory.
func NewDelayFactory() *DelayFactory {
	return &DelayFactory{}
}

// Type возвращает тип шага.
func (f *DelayFactory) Type() string {
	return StepTypeDelay
}

// Build валидирует длительность и возвращает функцию задержки.
func (f *DelayFactory) Build(config map[string]any) (domain.StepFunc, error) {
	duration, err := parseDuration(config)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, _, _ map[string]any) (map[string]any, error) {
		timer := time.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
		case <-timer.C:
			return map[string]any{
				"delayed_ms": duration.Milliseconds(),
			}, nil
		}
	}, nil
}

// parseDuration извлекает длительность из конфигурации.
func parseDuration(config map[string]any) (time.Duration, error) {
	if sec := GetConfigInt(config, configDurationSec); sec > 0 {
		return time.Duration(sec) * time.Second, nil
	}

	if ms := GetConfigInt(config, configDurationMs); ms > 0 {
		return time.Duration(ms) * time.Millisecond, nil
	}

	return 0, fmt.Errorf("%w: %s: duration_sec or duration_ms required",
		ErrInvalidConfig, StepTypeDelay)
}
