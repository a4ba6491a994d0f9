package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/genxais/pipelined/internal/domain"
	"github.com/genxais/pipelined/internal/telemetry"
)

// Статусы исхода восстановления.
const (
	// OutcomeRecovered — стратегия завершилась успехом.
	OutcomeRecovered = "recovered"

	// OutcomeFailed — стратегии нет, либо она завершилась неудачей.
	OutcomeFailed = "failed"
)

// Strategy — стратегия восстановления для одного вида ошибки.
//
// Возвращает детали исхода и ошибку. nil-ошибка означает успешное
// восстановление; ненулевая — неудачу (детали при этом всё равно
// попадают в запись).
type Strategy func(ctx context.Context, details map[string]any, callContext string) (map[string]any, error)

// Outcome — структурированный результат одного вызова Handle.
type Outcome struct {
	// Status — итог: recovered или failed.
	Status string `json:"status"`

	// RecoveryAttempted — была ли запущена стратегия.
	RecoveryAttempted bool `json:"recovery_attempted"`

	// RecoverySuccessful — завершилась ли стратегия успехом.
	RecoverySuccessful bool `json:"recovery_successful"`

	// Details — детали исхода стратегии.
	Details map[string]any `json:"details,omitempty"`

	// Record — сохранённая запись об ошибке.
	Record *domain.ErrorRecord `json:"record,omitempty"`
}

// Dispatcher — диспетчер восстановления.
//
// Хранит закрытую таблицу вид → стратегия. Не имеет знаний о
// конвейерах и вызывается как из пути обработки сбоев шага,
// так и любым другим кодом, которому нужна generic-классификация.
type Dispatcher struct {
	strategies map[domain.RecoveryKind]Strategy
	store      Store
	logger     *slog.Logger

	// notify вызывается после сохранения каждой записи (опционально).
	notify func(*domain.ErrorRecord)
}

// Config — конфигурация Dispatcher.
type Config struct {
	// Store — хранилище записей (default: NewMemoryStore()).
	Store Store

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger

	// Roots — корневые каталоги для файловых стратегий.
	Roots Roots

	// Notify — колбэк на каждую сохранённую запись (опционально;
	// сервис подключает сюда публикацию события error.recorded).
	Notify func(*domain.ErrorRecord)
}

// New создаёт Dispatcher с полной таблицей стратегий по умолчанию.
func New(cfg Config) *Dispatcher {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		strategies: make(map[domain.RecoveryKind]Strategy),
		store:      store,
		logger:     logger,
		notify:     cfg.Notify,
	}

	roots := cfg.Roots.normalized()
	d.Register(domain.KindMissingCredential, recoverCredentials(roots))
	d.Register(domain.KindMissingFile, recoverMissingFile(roots))
	d.Register(domain.KindMissingDependency, recoverDependency(roots))
	d.Register(domain.KindPermissionDenied, recoverPermission)
	d.Register(domain.KindNetworkError, recoverNetwork)
	d.Register(domain.KindInterruptedCycle, recoverInterruptedCycle(roots))
	d.Register(domain.KindStorageFailure, recoverStorage(roots))
	d.Register(domain.KindExecutionError, recoverExecution)

	return d
}

// Register добавляет или заменяет стратегию для вида.
func (d *Dispatcher) Register(kind domain.RecoveryKind, strategy Strategy) {
	d.strategies[kind] = strategy
}

// Store возвращает хранилище записей.
func (d *Dispatcher) Store() Store {
	return d.store
}

// Handle обрабатывает одну классифицированную ошибку.
//
// Каждый вызов — успешный или нет — создаёт и сохраняет одну
// запись ErrorRecord до возврата. Для вида без стратегии исход
// фиксируется с recovery_attempted=false. Вторичная ошибка или
// паника стратегии не распространяется: она попадает в запись.
func (d *Dispatcher) Handle(ctx context.Context, kind domain.RecoveryKind, details map[string]any, callContext string) Outcome {
	d.logger.Error("error detected",
		"kind", kind,
		"details", details,
		"context", callContext,
	)

	rec := &domain.ErrorRecord{
		ID:         uuid.New(),
		Timestamp:  time.Now(),
		Kind:       kind,
		Details:    details,
		Context:    callContext,
		StackTrace: string(debug.Stack()),
	}

	outcome := Outcome{Status: OutcomeFailed, Record: rec}

	strategy, known := d.strategies[kind]
	if !known {
		// Неизвестный вид — стратегия не запускается.
		d.logger.Warn("no recovery strategy", "kind", kind)
	} else {
		rec.RecoveryAttempted = true
		outcome.RecoveryAttempted = true

		d.logger.Info("starting recovery strategy", "kind", kind)
		result, err := d.runStrategy(ctx, strategy, details, callContext)

		if err == nil {
			rec.RecoverySuccessful = true
			rec.RecoveryDetails = result
			outcome.Status = OutcomeRecovered
			outcome.RecoverySuccessful = true
			outcome.Details = result
			d.logger.Info("recovery successful", "kind", kind)
		} else {
			rec.RecoveryDetails = mergeError(result, err)
			outcome.Details = rec.RecoveryDetails
			d.logger.Warn("recovery failed", "kind", kind, "error", err)
		}
	}

	// Запись сохраняется до возврата; сбой хранилища логируется,
	// но не меняет исход.
	if err := d.store.Append(ctx, rec); err != nil {
		d.logger.Error("failed to persist error record",
			"kind", kind,
			"record_id", rec.ID,
			"error", err,
		)
	}

	telemetry.RecoveriesTotal.WithLabelValues(string(kind), outcome.Status).Inc()

	if d.notify != nil {
		d.notify(rec)
	}

	return outcome
}

// runStrategy выполняет стратегию с изоляцией паник.
func (d *Dispatcher) runStrategy(ctx context.Context, strategy Strategy, details map[string]any, callContext string) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovery strategy panicked: %v", r)
		}
	}()

	return strategy(ctx, details, callContext)
}

// mergeError встраивает текст вторичной ошибки в детали исхода.
func mergeError(result map[string]any, err error) map[string]any {
	if result == nil {
		result = make(map[string]any, 1)
	}
	result["error"] = err.Error()
	return result
}
