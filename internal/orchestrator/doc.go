// Package orchestrator — реестр конвейеров и цикл их выполнения.
//
// Оркестратор владеет определениями конвейеров и их состоянием:
//   - Create регистрирует определение после валидации зависимостей
//   - Execute прогоняет шаги слева направо с retry и паузами
//   - Pause/Resume/Reset управляют статусом между шагами
//
// Выполнение однопроцессное: ограничение параллелизма задаётся
// семафором, события жизненного цикла публикуются в RabbitMQ,
// снимки терминальных состояний — в PostgreSQL (и то и другое
// опционально).
package orchestrator
