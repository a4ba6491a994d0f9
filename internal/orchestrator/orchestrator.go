package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/genxais/pipelined/internal/domain"
	"github.com/genxais/pipelined/internal/engine"
	"github.com/genxais/pipelined/internal/events"
	"github.com/genxais/pipelined/internal/executor"
	"github.com/genxais/pipelined/internal/recovery"
	"github.com/genxais/pipelined/internal/state"
	"github.com/genxais/pipelined/internal/telemetry"
)

// defaultMaxConcurrent — сколько конвейеров могут выполняться одновременно.
const defaultMaxConcurrent = 8

// SnapshotStore сохраняет снимки состояния конвейеров.
// Реализация: repo.PipelineRepo (PostgreSQL).
type SnapshotStore interface {
	Save(ctx context.Context, m domain.PipelineMetrics) error
}

// entry — зарегистрированный конвейер: определение и живое состояние.
type entry struct {
	def   *domain.Pipeline
	state *state.Pipeline
}

// Orchestrator управляет реестром конвейеров и их выполнением.
type Orchestrator struct {
	executor   *executor.Executor
	dispatcher *recovery.Dispatcher

	// Необязательная инфраструктура: nil отключает.
	snapshots SnapshotStore
	publisher *events.Publisher

	sem    *semaphore.Weighted
	logger *slog.Logger

	mu        sync.RWMutex
	pipelines map[string]*entry
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Executor — исполнитель шагов (default: executor.New с дефолтами).
	Executor *executor.Executor

	// Dispatcher — диспетчер восстановления (default: recovery.New
	// с in-memory хранилищем).
	Dispatcher *recovery.Dispatcher

	// Snapshots — хранилище снимков состояния (опционально).
	Snapshots SnapshotStore

	// Publisher — публикация событий жизненного цикла (опционально).
	Publisher *events.Publisher

	// MaxConcurrent — лимит одновременных Execute (default: 8).
	MaxConcurrent int

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// New создаёт Orchestrator.
func New(cfg Config) *Orchestrator {
	exec := cfg.Executor
	if exec == nil {
		exec = executor.New(executor.Config{Logger: cfg.Logger})
	}

	disp := cfg.Dispatcher
	if disp == nil {
		disp = recovery.New(recovery.Config{Logger: cfg.Logger})
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		executor:   exec,
		dispatcher: disp,
		snapshots:  cfg.Snapshots,
		publisher:  cfg.Publisher,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
		logger:     logger,
		pipelines:  make(map[string]*entry),
	}
}

// Dispatcher возвращает диспетчер восстановления (для API записей).
func (o *Orchestrator) Dispatcher() *recovery.Dispatcher {
	return o.dispatcher
}

// Create валидирует шаги и регистрирует конвейер в статусе PENDING.
//
// Определение копируется: дальнейшие изменения среза вызывающей
// стороной на реестр не влияют.
func (o *Orchestrator) Create(ctx context.Context, name string, steps []domain.Step) (*domain.Pipeline, error) {
	if name == "" {
		return nil, ErrEmptyPipelineName
	}

	// Сначала копия с заполненными retry-дефолтами, затем валидация:
	// нулевая RetryPolicy означает "использовать значения по умолчанию"
	// и не должна отклоняться как некорректная.
	cloned := domain.CloneSteps(steps)
	if err := engine.Validate(cloned); err != nil {
		return nil, err
	}

	def := &domain.Pipeline{
		Name:      name,
		Steps:     cloned,
		CreatedAt: time.Now(),
	}

	o.mu.Lock()
	if _, exists := o.pipelines[name]; exists {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePipeline, name)
	}
	o.pipelines[name] = &entry{def: def, state: state.NewPipeline(name)}
	o.mu.Unlock()

	o.logger.Info("pipeline registered",
		"pipeline", name,
		"steps", len(def.Steps),
	)
	o.publisher.PublishPipeline(ctx, events.EventPipelineCreated, events.PipelinePayload{
		Pipeline: name,
		Status:   domain.StatusPending,
		Steps:    len(def.Steps),
	})

	return def, nil
}

// Execute выполняет конвейер от первого шага к последнему.
//
// Конвейер должен быть в статусе PENDING; повторный запуск
// завершившегося требует Reset. Перед каждым шагом выполнение
// блокируется, пока конвейер на паузе. Возвращает копию
// накопленных results.
func (o *Orchestrator) Execute(ctx context.Context, name string, input map[string]any) (map[string]any, error) {
	ent, err := o.lookup(name)
	if err != nil {
		return nil, err
	}

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire execution slot: %w", err)
	}
	defer o.sem.Release(1)

	st := ent.state
	if err := st.Begin(); err != nil {
		return nil, err
	}
	telemetry.ActivePipelines.Inc()
	defer telemetry.ActivePipelines.Dec()

	o.logger.Info("pipeline started", "pipeline", name, "steps", len(ent.def.Steps))
	o.publisher.PublishPipeline(ctx, events.EventPipelineStarted, events.PipelinePayload{
		Pipeline: name,
		Status:   domain.StatusRunning,
		Steps:    len(ent.def.Steps),
	})

	for i := range ent.def.Steps {
		step := &ent.def.Steps[i]

		// Пауза действует между шагами: начатый шаг дорабатывает.
		if err := st.AwaitRunning(ctx); err != nil {
			return nil, o.failPipeline(ctx, ent, step.Name, 0, err)
		}

		output, attempts, execErr := o.executor.ExecuteWithRetry(ctx, step, input, st.Results())
		if execErr == nil {
			st.StepCompleted(step.Name, attempts, output)
			continue
		}

		if o.stepHandled(ctx, ent, step, attempts, input, execErr) {
			st.StepHandled(step.Name, attempts)
			continue
		}

		return nil, o.failPipeline(ctx, ent, step.Name, attempts, execErr)
	}

	if err := st.Complete(); err != nil {
		return nil, err
	}

	o.logger.Info("pipeline completed", "pipeline", name)
	telemetry.ExecutionsTotal.WithLabelValues(string(domain.StatusCompleted)).Inc()
	o.publisher.PublishPipeline(ctx, events.EventPipelineCompleted, events.PipelinePayload{
		Pipeline: name,
		Status:   domain.StatusCompleted,
	})
	o.snapshot(ctx, ent)

	return st.Results(), nil
}

// stepHandled прогоняет обработчики шага, затем диспетчер
// восстановления. true — сбой поглощён, выполнение продолжается.
func (o *Orchestrator) stepHandled(ctx context.Context, ent *entry, step *domain.Step, attempts int, input map[string]any, execErr error) bool {
	for _, handler := range step.ErrorHandlers {
		if handler == nil {
			continue
		}
		if err := handler(ctx, execErr, step, input, ent.state.Results()); err == nil {
			o.logger.Info("step failure handled",
				"pipeline", ent.def.Name,
				"step", step.Name,
			)
			return true
		}
	}

	outcome := o.dispatcher.Handle(ctx, domain.KindExecutionError, map[string]any{
		"pipeline": ent.def.Name,
		"function": step.Name,
		"error":    execErr.Error(),
		"attempts": attempts,
	}, fmt.Sprintf("pipeline %q step %q", ent.def.Name, step.Name))

	return outcome.RecoverySuccessful
}

// failPipeline переводит конвейер в FAILED и оформляет ошибку.
func (o *Orchestrator) failPipeline(ctx context.Context, ent *entry, stepName string, attempts int, cause error) error {
	name := ent.def.Name

	if err := ent.state.Fail(domain.LastError{
		Step:    stepName,
		Message: cause.Error(),
		Time:    time.Now(),
	}); err != nil {
		o.logger.Error("failed to mark pipeline as failed",
			"pipeline", name,
			"error", err,
		)
	}

	o.logger.Error("pipeline failed",
		"pipeline", name,
		"step", stepName,
		"error", cause,
	)
	telemetry.ExecutionsTotal.WithLabelValues(string(domain.StatusFailed)).Inc()
	o.publisher.PublishPipeline(ctx, events.EventPipelineFailed, events.PipelinePayload{
		Pipeline: name,
		Status:   domain.StatusFailed,
		Error:    cause.Error(),
	})
	o.snapshot(ctx, ent)

	return &RecoveryExhaustedError{
		Pipeline: name,
		Step:     stepName,
		Attempts: attempts,
		Err:      cause,
	}
}

// Pause ставит выполняющийся конвейер на паузу.
func (o *Orchestrator) Pause(ctx context.Context, name string) error {
	ent, err := o.lookup(name)
	if err != nil {
		return err
	}
	if err := ent.state.Pause(); err != nil {
		return err
	}

	o.logger.Info("pipeline paused", "pipeline", name)
	o.publisher.PublishPipeline(ctx, events.EventPipelinePaused, events.PipelinePayload{
		Pipeline: name,
		Status:   domain.StatusPaused,
	})
	return nil
}

// Resume снимает конвейер с паузы.
func (o *Orchestrator) Resume(ctx context.Context, name string) error {
	ent, err := o.lookup(name)
	if err != nil {
		return err
	}
	if err := ent.state.Resume(); err != nil {
		return err
	}

	o.logger.Info("pipeline resumed", "pipeline", name)
	o.publisher.PublishPipeline(ctx, events.EventPipelineResumed, events.PipelinePayload{
		Pipeline: name,
		Status:   domain.StatusRunning,
	})
	return nil
}

// Reset возвращает завершившийся конвейер в PENDING.
func (o *Orchestrator) Reset(ctx context.Context, name string) error {
	ent, err := o.lookup(name)
	if err != nil {
		return err
	}
	if err := ent.state.Reset(); err != nil {
		return err
	}

	o.logger.Info("pipeline reset", "pipeline", name)
	return nil
}

// Delete удаляет конвейер из реестра. Активный конвейер
// (RUNNING или PAUSED) удалить нельзя.
func (o *Orchestrator) Delete(name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	ent, exists := o.pipelines[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrPipelineNotFound, name)
	}

	switch ent.state.Status() {
	case domain.StatusRunning, domain.StatusPaused:
		return fmt.Errorf("%w: %s", ErrPipelineActive, name)
	}

	delete(o.pipelines, name)
	o.logger.Info("pipeline deleted", "pipeline", name)
	return nil
}

// Status возвращает текущий статус конвейера.
func (o *Orchestrator) Status(name string) (domain.Status, error) {
	ent, err := o.lookup(name)
	if err != nil {
		return "", err
	}
	return ent.state.Status(), nil
}

// Results возвращает копию накопленных results.
func (o *Orchestrator) Results(name string) (map[string]any, error) {
	ent, err := o.lookup(name)
	if err != nil {
		return nil, err
	}
	return ent.state.Results(), nil
}

// Metrics возвращает снимок метрик конвейера.
func (o *Orchestrator) Metrics(name string) (domain.PipelineMetrics, error) {
	ent, err := o.lookup(name)
	if err != nil {
		return domain.PipelineMetrics{}, err
	}
	return ent.state.Metrics(len(ent.def.Steps)), nil
}

// Definition возвращает зарегистрированное определение конвейера.
func (o *Orchestrator) Definition(name string) (*domain.Pipeline, error) {
	ent, err := o.lookup(name)
	if err != nil {
		return nil, err
	}
	return ent.def, nil
}

// List возвращает снимки всех конвейеров, отсортированные по имени.
func (o *Orchestrator) List() []domain.PipelineMetrics {
	o.mu.RLock()
	out := make([]domain.PipelineMetrics, 0, len(o.pipelines))
	for _, ent := range o.pipelines {
		out = append(out, ent.state.Metrics(len(ent.def.Steps)))
	}
	o.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// lookup возвращает entry по имени.
func (o *Orchestrator) lookup(name string) (*entry, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ent, exists := o.pipelines[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrPipelineNotFound, name)
	}
	return ent, nil
}

// snapshot сохраняет терминальный снимок состояния (если есть куда).
func (o *Orchestrator) snapshot(ctx context.Context, ent *entry) {
	if o.snapshots == nil {
		return
	}
	m := ent.state.Metrics(len(ent.def.Steps))
	if err := o.snapshots.Save(ctx, m); err != nil {
		o.logger.Warn("failed to persist pipeline snapshot",
			"pipeline", ent.def.Name,
			"error", err,
		)
	}
}
