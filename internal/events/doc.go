// Package events публикует жизненный цикл конвейеров в RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange, queues, bindings
//   - publisher.go  — публикация событий
//
// Публикуемые события:
//   - pipeline.created / started / completed / failed / paused / resumed
//   - error.recorded — сохранена запись об ошибке
//
// Пакет только публикует: выполнение конвейеров остаётся внутри
// процесса, очередь служит внешним наблюдателям и аудиту.
package events
