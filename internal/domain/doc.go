// Package domain содержит основные типы предметной области.
//
// Здесь определены:
//   - Pipeline и Step — определение конвейера и его шагов
//   - Status — конечный автомат статусов pipeline
//   - RetryPolicy — политика повторных попыток шага
//   - ErrorRecord и RecoveryKind — документирование обработанных ошибок
//
// Типы domain не содержат логики выполнения — только данные
// и простые методы над ними. Логика живёт в engine, executor,
// recovery, state и orchestrator.
package domain
