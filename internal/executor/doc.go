// Package executor выполняет отдельные шаги конвейера.
//
// Executor отвечает за:
//   - Вызов функции шага с изоляцией паник
//   - Retry с линейным backoff (BaseDelay * attempt) и потолком задержки
//   - Warning-событие на каждую неудачную попытку до финальной
//   - Возврат последней ошибки без изменений после исчерпания попыток
//
// Задержка между попытками не держит никаких блокировок конвейера:
// ожидание — это select по таймеру и контексту.
package executor
