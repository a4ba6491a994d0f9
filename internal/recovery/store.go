package recovery

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/genxais/pipelined/internal/domain"
)

// ErrRecordNotFound — запись не найдена в хранилище.
var ErrRecordNotFound = errors.New("error record not found")

// Store — append-only хранилище записей об ошибках.
//
// Реализации: MemoryStore (in-process, для работы без БД и для
// тестов) и repo.RecordRepo (PostgreSQL). Записи после Append
// никогда не изменяются и не удаляются.
type Store interface {
	// Append добавляет одну запись.
	Append(ctx context.Context, rec *domain.ErrorRecord) error

	// List возвращает записи, новые первыми.
	// kind == "" — без фильтра; limit <= 0 — без ограничения.
	List(ctx context.Context, kind domain.RecoveryKind, limit int) ([]domain.ErrorRecord, error)

	// GetByID возвращает запись по идентификатору.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ErrorRecord, error)
}

// MemoryStore — потокобезопасное in-memory хранилище записей.
type MemoryStore struct {
	mu      sync.RWMutex
	records []domain.ErrorRecord
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append добавляет запись. Хранится копия: дальнейшие изменения
// аргумента вызывающей стороной на хранилище не влияют.
func (s *MemoryStore) Append(_ context.Context, rec *domain.ErrorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *rec)
	return nil
}

// List возвращает записи, новые первыми.
func (s *MemoryStore) List(_ context.Context, kind domain.RecoveryKind, limit int) ([]domain.ErrorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ErrorRecord, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if kind != "" && rec.Kind != kind {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// GetByID возвращает запись по идентификатору.
func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*domain.ErrorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].ID == id {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, ErrRecordNotFound
}

// Len возвращает количество записей.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
