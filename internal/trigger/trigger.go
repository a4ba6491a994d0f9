package trigger

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Ошибки реестра триггеров.
var (
	// ErrInvalidTrigger — триггер без cron_expr и interval_sec.
	ErrInvalidTrigger = errors.New("trigger has neither cron_expr nor interval_sec")

	// ErrTriggerNotFound — триггер не найден в реестре.
	ErrTriggerNotFound = errors.New("trigger not found")
)

// Trigger — расписание запуска одного конвейера.
//
// Задаётся либо cron-выражением, либо интервалом в секундах.
type Trigger struct {
	ID          uuid.UUID      `json:"id"`
	Pipeline    string         `json:"pipeline"`
	CronExpr    string         `json:"cron_expr,omitempty"`
	IntervalSec int            `json:"interval_sec,omitempty"`
	Timezone    string         `json:"timezone,omitempty"`
	Enabled     bool           `json:"enabled"`
	Input       map[string]any `json:"input,omitempty"`
	NextDueAt   time.Time      `json:"next_due_at"`
	CreatedAt   time.Time      `json:"created_at"`
}

// IsCron проверяет, задан ли триггер cron-выражением.
func (t *Trigger) IsCron() bool {
	return t.CronExpr != ""
}

// IsInterval проверяет, задан ли триггер интервалом.
func (t *Trigger) IsInterval() bool {
	return t.IntervalSec > 0
}

// Registry — потокобезопасный in-memory реестр триггеров.
type Registry struct {
	mu       sync.RWMutex
	triggers map[uuid.UUID]*Trigger
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{triggers: make(map[uuid.UUID]*Trigger)}
}

// Add валидирует триггер, вычисляет первое next_due_at и регистрирует.
func (r *Registry) Add(trg *Trigger) error {
	if trg.IsCron() {
		if err := ValidateCronExpr(trg.CronExpr); err != nil {
			return err
		}
	} else if !trg.IsInterval() {
		return ErrInvalidTrigger
	}

	if trg.ID == uuid.Nil {
		trg.ID = uuid.New()
	}
	if trg.CreatedAt.IsZero() {
		trg.CreatedAt = time.Now()
	}

	next, err := CalculateNextDue(trg, time.Now())
	if err != nil {
		return err
	}
	trg.NextDueAt = next

	r.mu.Lock()
	r.triggers[trg.ID] = trg
	r.mu.Unlock()
	return nil
}

// Remove удаляет триггер из реестра.
func (r *Registry) Remove(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.triggers[id]; !exists {
		return ErrTriggerNotFound
	}
	delete(r.triggers, id)
	return nil
}

// SetEnabled включает или выключает триггер.
func (r *Registry) SetEnabled(id uuid.UUID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	trg, exists := r.triggers[id]
	if !exists {
		return ErrTriggerNotFound
	}
	trg.Enabled = enabled
	return nil
}

// List возвращает копии всех триггеров, отсортированные по времени создания.
func (r *Registry) List() []Trigger {
	r.mu.RLock()
	out := make([]Trigger, 0, len(r.triggers))
	for _, trg := range r.triggers {
		out = append(out, *trg)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// due возвращает включённые триггеры с истекшим next_due_at.
func (r *Registry) due(now time.Time) []*Trigger {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Trigger
	for _, trg := range r.triggers {
		if trg.Enabled && !trg.NextDueAt.After(now) {
			out = append(out, trg)
		}
	}
	return out
}

// advance переносит next_due_at триггера вперёд.
func (r *Registry) advance(trg *Trigger, now time.Time) error {
	next, err := CalculateNextDue(trg, now)
	if err != nil {
		return err
	}

	r.mu.Lock()
	trg.NextDueAt = next
	r.mu.Unlock()
	return nil
}
