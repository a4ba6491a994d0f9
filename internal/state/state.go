package state

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/genxais/pipelined/internal/domain"
)

// defaultPollInterval — интервал опроса статуса в AwaitRunning.
const defaultPollInterval = 100 * time.Millisecond

// Pipeline — состояние выполнения одного конвейера.
//
// Создаётся при регистрации определения и живёт до явного удаления.
// Мутируется только оркестратором в ходе execute/pause/resume/reset;
// все методы потокобезопасны.
type Pipeline struct {
	mu sync.RWMutex

	name    string
	status  domain.Status
	results map[string]any
	lastErr *domain.LastError

	startedAt  *time.Time
	finishedAt *time.Time

	completedSteps  int
	handledFailures int
	attempts        map[string]int

	// pollInterval — шаг опроса при ожидании выхода из PAUSED.
	pollInterval time.Duration
}

// NewPipeline создаёт состояние в статусе PENDING с пустыми results.
func NewPipeline(name string) *Pipeline {
	return &Pipeline{
		name:         name,
		status:       domain.StatusPending,
		results:      make(map[string]any),
		attempts:     make(map[string]int),
		pollInterval: defaultPollInterval,
	}
}

// Name возвращает имя конвейера.
func (p *Pipeline) Name() string {
	return p.name
}

// Status возвращает текущий статус.
func (p *Pipeline) Status() domain.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Results возвращает копию накопленных результатов.
func (p *Pipeline) Results() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return copyMap(p.results)
}

// LastError возвращает последнюю ошибку (nil, если её не было).
func (p *Pipeline) LastError() *domain.LastError {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastErr == nil {
		return nil
	}
	le := *p.lastErr
	return &le
}

// Begin переводит конвейер PENDING → RUNNING.
//
// Повторный execute на уже выполняющемся конвейере, равно как и
// execute на терминальном, отклоняется InvalidTransitionError.
func (p *Pipeline) Begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status != domain.StatusPending {
		return &InvalidTransitionError{Pipeline: p.name, From: p.status, To: domain.StatusRunning}
	}

	now := time.Now()
	p.status = domain.StatusRunning
	p.startedAt = &now
	p.finishedAt = nil
	p.lastErr = nil
	return nil
}

// Complete переводит конвейер RUNNING → COMPLETED.
func (p *Pipeline) Complete() error {
	return p.finish(domain.StatusCompleted, nil)
}

// Fail переводит конвейер RUNNING → FAILED с записью последней ошибки.
func (p *Pipeline) Fail(le domain.LastError) error {
	return p.finish(domain.StatusFailed, &le)
}

func (p *Pipeline) finish(to domain.Status, le *domain.LastError) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.status.CanTransitionTo(to) {
		return &InvalidTransitionError{Pipeline: p.name, From: p.status, To: to}
	}

	now := time.Now()
	p.status = to
	p.finishedAt = &now
	p.lastErr = le
	return nil
}

// Pause переводит конвейер RUNNING → PAUSED.
// Шаг, который уже выполняется, не прерывается: пауза вступает
// в силу перед следующим шагом.
func (p *Pipeline) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status != domain.StatusRunning {
		return &InvalidTransitionError{Pipeline: p.name, From: p.status, To: domain.StatusPaused}
	}
	p.status = domain.StatusPaused
	return nil
}

// Resume переводит конвейер PAUSED → RUNNING.
func (p *Pipeline) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status != domain.StatusPaused {
		return &InvalidTransitionError{Pipeline: p.name, From: p.status, To: domain.StatusRunning}
	}
	p.status = domain.StatusRunning
	return nil
}

// AwaitRunning блокируется, пока конвейер в PAUSED.
//
// Возвращает nil, когда статус RUNNING. Ожидание — опрос статуса
// с интервалом pollInterval; мьютекс между опросами не держится,
// поэтому pause/resume и чтения статуса не блокируются.
func (p *Pipeline) AwaitRunning(ctx context.Context) error {
	for {
		p.mu.RLock()
		st := p.status
		p.mu.RUnlock()

		switch st {
		case domain.StatusRunning:
			return nil
		case domain.StatusPaused:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.pollInterval):
			}
		default:
			return &InvalidTransitionError{Pipeline: p.name, From: st, To: domain.StatusRunning}
		}
	}
}

// StepCompleted фиксирует успешное завершение шага: сливает частичный
// результат в results (results растут монотонно — ключи никогда не
// удаляются) и записывает количество попыток.
func (p *Pipeline) StepCompleted(step string, attempts int, partial map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for k, v := range partial {
		p.results[k] = v
	}
	p.completedSteps++
	p.attempts[step] = attempts
}

// StepHandled фиксирует сбой шага, погашенный обработчиком:
// results не меняются, выполнение продолжается.
func (p *Pipeline) StepHandled(step string, attempts int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.handledFailures++
	p.attempts[step] = attempts
}

// Reset сбрасывает терминальный конвейер обратно в PENDING.
// Results очищаются: повторный запуск начинается с нуля.
func (p *Pipeline) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.status.IsTerminal() {
		return ErrNotResettable
	}

	p.status = domain.StatusPending
	p.results = make(map[string]any)
	p.attempts = make(map[string]int)
	p.completedSteps = 0
	p.handledFailures = 0
	p.lastErr = nil
	p.startedAt = nil
	p.finishedAt = nil
	return nil
}

// Metrics возвращает снимок метрик выполнения.
// totalSteps — количество шагов в определении (состояние его не знает).
func (p *Pipeline) Metrics(totalSteps int) domain.PipelineMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()

	keys := make([]string, 0, len(p.results))
	for k := range p.results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := domain.PipelineMetrics{
		Name:            p.name,
		Status:          p.status,
		TotalSteps:      totalSteps,
		CompletedSteps:  p.completedSteps,
		HandledFailures: p.handledFailures,
		Attempts:        copyAttempts(p.attempts),
		ResultKeys:      keys,
	}
	if p.startedAt != nil {
		t := *p.startedAt
		m.StartedAt = &t
	}
	if p.finishedAt != nil {
		t := *p.finishedAt
		m.FinishedAt = &t
	}
	if p.lastErr != nil {
		le := *p.lastErr
		m.LastError = &le
	}
	return m
}

// SetPollInterval переопределяет интервал опроса (используется тестами).
func (p *Pipeline) SetPollInterval(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d > 0 {
		p.pollInterval = d
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyAttempts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
