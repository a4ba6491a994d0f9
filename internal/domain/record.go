package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecoveryKind — классифицированный вид ошибки для generic-recovery.
//
// Набор закрыт: диспетчер знает стратегию для каждого вида,
// неизвестные строки отклоняются при парсинге.
type RecoveryKind string

const (
	// KindMissingCredential — отсутствует API-ключ или другой секрет.
	KindMissingCredential RecoveryKind = "missing-credential"

	// KindMissingFile — файл не найден по ожидаемому пути.
	KindMissingFile RecoveryKind = "missing-file"

	// KindMissingDependency — отсутствует модуль или зависимость.
	KindMissingDependency RecoveryKind = "missing-dependency"

	// KindPermissionDenied — отказ в доступе к файлу или ресурсу.
	KindPermissionDenied RecoveryKind = "permission-denied"

	// KindNetworkError — сетевая ошибка.
	KindNetworkError RecoveryKind = "network-error"

	// KindInterruptedCycle — прерван цикл workflow, нужно восстановить состояние.
	KindInterruptedCycle RecoveryKind = "interrupted-workflow-cycle"

	// KindStorageFailure — сбой хранилища.
	KindStorageFailure RecoveryKind = "storage-failure"

	// KindExecutionError — произвольный сбой выполнения шага.
	// Используется оркестратором для документирования исчерпанных retry.
	KindExecutionError RecoveryKind = "execution-error"
)

// KnownKinds возвращает полный список распознаваемых видов.
func KnownKinds() []RecoveryKind {
	return []RecoveryKind{
		KindMissingCredential,
		KindMissingFile,
		KindMissingDependency,
		KindPermissionDenied,
		KindNetworkError,
		KindInterruptedCycle,
		KindStorageFailure,
		KindExecutionError,
	}
}

// ParseRecoveryKind парсит строку в RecoveryKind.
// Возвращает ошибку для неизвестных значений.
func ParseRecoveryKind(s string) (RecoveryKind, error) {
	for _, k := range KnownKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown recovery kind: %q", s)
}

// ErrorRecord — запись об одной обработанной ошибке.
//
// Создаётся диспетчером восстановления на каждый вызов и сохраняется
// в append-only хранилище. После записи не изменяется.
type ErrorRecord struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// Timestamp — время возникновения ошибки.
	Timestamp time.Time `json:"timestamp"`

	// Kind — классифицированный вид ошибки.
	Kind RecoveryKind `json:"kind"`

	// Details — детали ошибки (произвольный маппинг).
	Details map[string]any `json:"details,omitempty"`

	// Context — строка контекста от вызывающей стороны.
	Context string `json:"context,omitempty"`

	// StackTrace — снимок стека на момент обработки.
	StackTrace string `json:"stack_trace,omitempty"`

	// RecoveryAttempted — была ли запущена стратегия восстановления.
	RecoveryAttempted bool `json:"recovery_attempted"`

	// RecoverySuccessful — завершилась ли стратегия успехом.
	RecoverySuccessful bool `json:"recovery_successful"`

	// RecoveryDetails — результат стратегии (или вторичная ошибка).
	RecoveryDetails map[string]any `json:"recovery_details,omitempty"`
}
