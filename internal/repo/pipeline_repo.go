package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genxais/pipelined/internal/domain"
)

// PipelineRepo — репозиторий снимков состояния конвейеров.
//
// Хранится последний снимок на конвейер (upsert по имени).
// Реализует orchestrator.SnapshotStore.
type PipelineRepo struct {
	pool *pgxpool.Pool
}

// NewPipelineRepo создаёт новый PipelineRepo.
func NewPipelineRepo(pool *pgxpool.Pool) *PipelineRepo {
	return &PipelineRepo{pool: pool}
}

// Save сохраняет снимок, заменяя предыдущий.
func (r *PipelineRepo) Save(ctx context.Context, m domain.PipelineMetrics) error {
	attemptsJSON, err := json.Marshal(m.Attempts)
	if err != nil {
		return fmt.Errorf("marshal attempts: %w", err)
	}
	keysJSON, err := json.Marshal(m.ResultKeys)
	if err != nil {
		return fmt.Errorf("marshal result keys: %w", err)
	}

	var lastErrJSON []byte
	if m.LastError != nil {
		lastErrJSON, err = json.Marshal(m.LastError)
		if err != nil {
			return fmt.Errorf("marshal last error: %w", err)
		}
	}

	query := `
		INSERT INTO pipeline_snapshots (name, status, total_steps, completed_steps,
		                                handled_failures, attempts, result_keys,
		                                started_at, finished_at, last_error, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (name) DO UPDATE SET
			status           = EXCLUDED.status,
			total_steps      = EXCLUDED.total_steps,
			completed_steps  = EXCLUDED.completed_steps,
			handled_failures = EXCLUDED.handled_failures,
			attempts         = EXCLUDED.attempts,
			result_keys      = EXCLUDED.result_keys,
			started_at       = EXCLUDED.started_at,
			finished_at      = EXCLUDED.finished_at,
			last_error       = EXCLUDED.last_error,
			updated_at       = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query,
		m.Name,
		string(m.Status),
		m.TotalSteps,
		m.CompletedSteps,
		m.HandledFailures,
		attemptsJSON,
		keysJSON,
		m.StartedAt,
		m.FinishedAt,
		lastErrJSON,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upsert pipeline snapshot: %w", err)
	}
	return nil
}

// GetByName возвращает снимок по имени конвейера.
func (r *PipelineRepo) GetByName(ctx context.Context, name string) (*domain.PipelineMetrics, error) {
	query := `
		SELECT name, status, total_steps, completed_steps, handled_failures,
		       attempts, result_keys, started_at, finished_at, last_error
		FROM pipeline_snapshots
		WHERE name = $1
	`
	m, err := scanSnapshot(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// List возвращает все снимки, отсортированные по имени.
func (r *PipelineRepo) List(ctx context.Context) ([]domain.PipelineMetrics, error) {
	query := `
		SELECT name, status, total_steps, completed_steps, handled_failures,
		       attempts, result_keys, started_at, finished_at, last_error
		FROM pipeline_snapshots
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pipeline snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.PipelineMetrics
	for rows.Next() {
		m, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// scanSnapshot читает один снимок из строки результата.
func scanSnapshot(row pgx.Row) (*domain.PipelineMetrics, error) {
	var (
		m            domain.PipelineMetrics
		status       string
		attemptsJSON []byte
		keysJSON     []byte
		lastErrJSON  []byte
	)

	err := row.Scan(
		&m.Name,
		&status,
		&m.TotalSteps,
		&m.CompletedSteps,
		&m.HandledFailures,
		&attemptsJSON,
		&keysJSON,
		&m.StartedAt,
		&m.FinishedAt,
		&lastErrJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan pipeline snapshot: %w", err)
	}

	m.Status = domain.Status(status)
	if len(attemptsJSON) > 0 {
		if err := json.Unmarshal(attemptsJSON, &m.Attempts); err != nil {
			return nil, fmt.Errorf("unmarshal attempts: %w", err)
		}
	}
	if len(keysJSON) > 0 {
		if err := json.Unmarshal(keysJSON, &m.ResultKeys); err != nil {
			return nil, fmt.Errorf("unmarshal result keys: %w", err)
		}
	}
	if len(lastErrJSON) > 0 {
		var le domain.LastError
		if err := json.Unmarshal(lastErrJSON, &le); err != nil {
			return nil, fmt.Errorf("unmarshal last error: %w", err)
		}
		m.LastError = &le
	}
	return &m, nil
}
