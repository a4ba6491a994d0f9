package domain

// Status — статус выполнения конвейера.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → COMPLETED
//	                  ↘ FAILED
//	        RUNNING ↔ PAUSED (pause/resume)
//
// COMPLETED и FAILED — терминальные статусы: для повторного запуска
// конвейер нужно явно сбросить (results начинаются с нуля).
type Status string

const (
	// StatusPending — конвейер создан, но ещё не запускался.
	StatusPending Status = "PENDING"

	// StatusRunning — конвейер выполняется.
	StatusRunning Status = "RUNNING"

	// StatusCompleted — все шаги успешно завершены.
	StatusCompleted Status = "COMPLETED"

	// StatusFailed — выполнение прервано необработанной ошибкой шага.
	StatusFailed Status = "FAILED"

	// StatusPaused — выполнение приостановлено между шагами.
	StatusPaused Status = "PAUSED"
)

// IsTerminal возвращает true, если статус финальный.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo проверяет допустимость перехода s → to.
//
// Переходы монотонны, за исключением пары RUNNING ↔ PAUSED.
func (s Status) CanTransitionTo(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusRunning
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed || to == StatusPaused
	case StatusPaused:
		// FAILED — отмена контекста во время паузы завершает запуск.
		return to == StatusRunning || to == StatusFailed
	default:
		// Терминальные статусы переходов не имеют.
		return false
	}
}

// String возвращает строковое представление Status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus парсит строку в Status.
// Неизвестные значения трактуются как PENDING.
func ParseStatus(s string) Status {
	switch s {
	case "RUNNING":
		return StatusRunning
	case "COMPLETED":
		return StatusCompleted
	case "FAILED":
		return StatusFailed
	case "PAUSED":
		return StatusPaused
	default:
		return StatusPending
	}
}
