// Package trigger реализует расписания запуска конвейеров.
//
// Scheduler периодически проверяет триггеры с истекшим next_due_at
// и запускает соответствующие конвейеры через оркестратор.
//
// Структура:
//   - trigger.go   — типы триггеров и in-memory реестр
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//   - scheduler.go — основная логика Scheduler (Run, Tick)
//
// Использование:
//
//	sched := trigger.NewScheduler(trigger.SchedulerConfig{
//	    Orchestrator: orch,
//	    Logger:       logger,
//	})
//
//	// Блокирующий цикл, тик раз в секунду
//	go sched.Run(ctx)
package trigger
