// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (оркестратор, планировщик, реестр шагов)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - pipeline_handler.go — обработчики для /pipelines
//   - record_handler.go   — обработчики для /records и /errors
//   - trigger_handler.go  — обработчики для /triggers
//
// API предоставляет REST endpoints для управления конвейерами,
// журналом ошибок и расписаниями запуска.
package api
