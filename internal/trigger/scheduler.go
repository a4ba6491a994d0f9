package trigger

import (
	"context"
	"log/slog"
	"time"

	"github.com/genxais/pipelined/internal/domain"
	"github.com/genxais/pipelined/internal/orchestrator"
)

// defaultTickInterval — период проверки due-триггеров.
const defaultTickInterval = time.Second

// Scheduler запускает конвейеры по расписанию.
type Scheduler struct {
	registry *Registry
	orch     *orchestrator.Orchestrator
	logger   *slog.Logger
	interval time.Duration
}

// SchedulerConfig — конфигурация Scheduler.
type SchedulerConfig struct {
	// Registry — реестр триггеров (default: пустой NewRegistry()).
	Registry *Registry

	// Orchestrator — оркестратор, через который запускаются конвейеры.
	Orchestrator *orchestrator.Orchestrator

	// TickInterval — период тика (default: 1s).
	TickInterval time.Duration

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// NewScheduler создаёт Scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	interval := cfg.TickInterval
	if interval <= 0 {
		interval = defaultTickInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		registry: registry,
		orch:     cfg.Orchestrator,
		logger:   logger,
		interval: interval,
	}
}

// Registry возвращает реестр триггеров (для API).
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// Run — блокирующий цикл тиков до отмены контекста.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick обрабатывает все due-триггеры.
//
// Ошибка одного триггера не блокирует обработку остальных.
// next_due_at переносится вперёд независимо от исхода запуска:
// упавший конвейер не должен ретриггериться каждую секунду.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	due := s.registry.due(now)
	if len(due) == 0 {
		return
	}

	s.logger.Debug("found due triggers", "count", len(due))

	for _, trg := range due {
		if err := s.registry.advance(trg, now); err != nil {
			s.logger.Error("failed to advance trigger",
				"trigger_id", trg.ID,
				"pipeline", trg.Pipeline,
				"error", err,
			)
			continue
		}

		s.fire(ctx, trg)
	}
}

// fire запускает конвейер одного триггера.
func (s *Scheduler) fire(ctx context.Context, trg *Trigger) {
	status, err := s.orch.Status(trg.Pipeline)
	if err != nil {
		s.logger.Warn("trigger points to unknown pipeline, skipping",
			"trigger_id", trg.ID,
			"pipeline", trg.Pipeline,
		)
		return
	}

	switch status {
	case domain.StatusRunning, domain.StatusPaused:
		// Конвейер ещё занят предыдущим запуском.
		s.logger.Debug("pipeline busy, trigger skipped",
			"trigger_id", trg.ID,
			"pipeline", trg.Pipeline,
			"status", status,
		)
		return
	case domain.StatusCompleted, domain.StatusFailed:
		if err := s.orch.Reset(ctx, trg.Pipeline); err != nil {
			s.logger.Error("failed to reset pipeline for trigger",
				"trigger_id", trg.ID,
				"pipeline", trg.Pipeline,
				"error", err,
			)
			return
		}
	}

	s.logger.Info("trigger fired",
		"trigger_id", trg.ID,
		"pipeline", trg.Pipeline,
	)

	go func() {
		if _, err := s.orch.Execute(ctx, trg.Pipeline, trg.Input); err != nil {
			s.logger.Error("triggered execution failed",
				"trigger_id", trg.ID,
				"pipeline", trg.Pipeline,
				"error", err,
			)
		}
	}()
}
