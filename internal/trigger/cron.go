package trigger

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CalculateNextDue вычисляет следующее время срабатывания триггера.
// Для интервалов просто добавляет IntervalSec к текущему времени.
// Учитывает timezone триггера.
func CalculateNextDue(trg *Trigger, from time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(trg.Timezone)
	if err != nil {
		// Fallback на UTC если timezone невалидный
		loc = time.UTC
	}

	fromInTz := from.In(loc)

	if trg.IsCron() {
		return calculateNextCron(trg.CronExpr, fromInTz)
	}

	if trg.IsInterval() {
		return fromInTz.Add(time.Duration(trg.IntervalSec) * time.Second).UTC(), nil
	}

	// Ни cron, ни interval — триггер некорректный
	return time.Time{}, ErrInvalidTrigger
}

// calculateNextCron вычисляет следующее время по cron-выражению.
func calculateNextCron(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}

	return schedule.Next(from).UTC(), nil
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	_, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("%w: invalid cron expression %q: %v", ErrInvalidTrigger, cronExpr, err)
	}
	return nil
}
