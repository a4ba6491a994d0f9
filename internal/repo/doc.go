// Package repo — PostgreSQL-репозитории сервиса.
//
// Таблицы:
//   - error_records       — append-only журнал записей об ошибках
//   - pipeline_snapshots  — последние снимки состояния конвейеров
//
// RecordRepo реализует recovery.Store; при работе без БД
// диспетчер использует in-memory хранилище.
package repo
