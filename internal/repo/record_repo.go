package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genxais/pipelined/internal/domain"
)

// RecordRepo — репозиторий записей об ошибках.
//
// Журнал append-only: записи после вставки не изменяются
// и не удаляются. Реализует recovery.Store.
type RecordRepo struct {
	pool *pgxpool.Pool
}

// NewRecordRepo создаёт новый RecordRepo.
func NewRecordRepo(pool *pgxpool.Pool) *RecordRepo {
	return &RecordRepo{pool: pool}
}

// Append добавляет одну запись.
func (r *RecordRepo) Append(ctx context.Context, rec *domain.ErrorRecord) error {
	detailsJSON, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	recoveryJSON, err := json.Marshal(rec.RecoveryDetails)
	if err != nil {
		return fmt.Errorf("marshal recovery details: %w", err)
	}

	query := `
		INSERT INTO error_records (id, ts, kind, details, context, stack_trace,
		                           recovery_attempted, recovery_successful, recovery_details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.pool.Exec(ctx, query,
		rec.ID,
		rec.Timestamp,
		string(rec.Kind),
		detailsJSON,
		rec.Context,
		rec.StackTrace,
		rec.RecoveryAttempted,
		rec.RecoverySuccessful,
		recoveryJSON,
	)
	if err != nil {
		return fmt.Errorf("insert error record: %w", err)
	}
	return nil
}

// List возвращает записи, новые первыми.
// kind == "" — без фильтра; limit <= 0 — без ограничения.
func (r *RecordRepo) List(ctx context.Context, kind domain.RecoveryKind, limit int) ([]domain.ErrorRecord, error) {
	query := `
		SELECT id, ts, kind, details, context, stack_trace,
		       recovery_attempted, recovery_successful, recovery_details
		FROM error_records
		WHERE ($1::text IS NULL OR kind = $1)
		ORDER BY ts DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(string(kind)),
		nullLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list error records: %w", err)
	}
	defer rows.Close()

	var records []domain.ErrorRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// GetByID возвращает запись по идентификатору.
func (r *RecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ErrorRecord, error) {
	query := `
		SELECT id, ts, kind, details, context, stack_trace,
		       recovery_attempted, recovery_successful, recovery_details
		FROM error_records
		WHERE id = $1
	`
	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// scanRecord читает одну запись из строки результата.
func scanRecord(row pgx.Row) (*domain.ErrorRecord, error) {
	var (
		rec          domain.ErrorRecord
		kind         string
		detailsJSON  []byte
		recoveryJSON []byte
	)

	err := row.Scan(
		&rec.ID,
		&rec.Timestamp,
		&kind,
		&detailsJSON,
		&rec.Context,
		&rec.StackTrace,
		&rec.RecoveryAttempted,
		&rec.RecoverySuccessful,
		&recoveryJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan error record: %w", err)
	}

	rec.Kind = domain.RecoveryKind(kind)
	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &rec.Details); err != nil {
			return nil, fmt.Errorf("unmarshal details: %w", err)
		}
	}
	if len(recoveryJSON) > 0 {
		if err := json.Unmarshal(recoveryJSON, &rec.RecoveryDetails); err != nil {
			return nil, fmt.Errorf("unmarshal recovery details: %w", err)
		}
	}
	return &rec, nil
}

// nullString возвращает nil для пустой строки.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullLimit возвращает nil для limit <= 0 (LIMIT NULL = без ограничения).
func nullLimit(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
