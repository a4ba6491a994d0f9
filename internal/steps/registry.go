package steps

import (
	"fmt"
	"sort"
	"sync"

	"github.com/genxais/pipelined/internal/domain"
)

// Registry — реестр фабрик шагов.
//
// Позволяет регистрировать и получать фабрики по типу. Потокобезопасен.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry создаёт реестр со всеми стандартными фабриками.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(NewDelayFactory())
	r.Register(NewTemplateFactory())
	r.Register(NewProbeFactory())

	return r
}

// Register регистрирует фабрику в реестре.
// Если фабрика с таким типом уже существует, она будет перезаписана.
func (r *Registry) Register(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[f.Type()] = f
}

// Get возвращает фабрику по типу.
// Возвращает ErrFactoryNotFound, если тип неизвестен.
func (r *Registry) Get(stepType string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, exists := r.factories[stepType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrFactoryNotFound, stepType)
	}
	return f, nil
}

// Has проверяет, зарегистрирован ли тип.
func (r *Registry) Has(stepType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[stepType]
	return exists
}

// Types возвращает список всех зарегистрированных типов.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build собирает domain.Step декларативного описания.
func (r *Registry) Build(name, stepType string, config map[string]any, requires, provides []string, retry domain.RetryPolicy) (domain.Step, error) {
	f, err := r.Get(stepType)
	if err != nil {
		return domain.Step{}, err
	}

	fn, err := f.Build(config)
	if err != nil {
		return domain.Step{}, err
	}

	return domain.Step{
		Name:     name,
		Func:     fn,
		Requires: requires,
		Provides: provides,
		Retry:    retry,
	}, nil
}
