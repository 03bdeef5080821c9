package schedule

import (
	"fmt"
	"time"

	"github.com/hookloop/hookloop/internal/domain"
)

// NextRun computes when a schedule fires next, strictly after now. It is a
// pure function, spec is never mutated and callers persist the returned
// value as the new nextRunAt.
func NextRun(spec domain.Schedule, now time.Time) (time.Time, error) {
	loc := time.UTC
	if spec.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(spec.Timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timezone %q: %w", spec.Timezone, err)
		}
	}
	now = now.In(loc)

	switch spec.ScheduleType {
	case domain.ScheduleMinutely:
		return now.Truncate(time.Minute).Add(time.Minute), nil

	case domain.ScheduleHourly:
		candidate := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), spec.Minute, 0, 0, loc)
		if !candidate.After(now) {
			candidate = candidate.Add(time.Hour)
		}
		return candidate, nil

	case domain.ScheduleDaily:
		hour, err := requiredHour(spec)
		if err != nil {
			return time.Time{}, err
		}
		candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, spec.Minute, 0, 0, loc)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		return candidate, nil

	case domain.ScheduleWeekly:
		hour, err := requiredHour(spec)
		if err != nil {
			return time.Time{}, err
		}
		if !spec.DayOfWeek.Valid {
			return time.Time{}, fmt.Errorf("weekly schedule requires dayOfWeek")
		}
		target := time.Weekday(spec.DayOfWeek.Int64)
		daysAhead := (int(target) - int(now.Weekday()) + 7) % 7
		candidate := time.Date(now.Year(), now.Month(), now.Day()+daysAhead, hour, spec.Minute, 0, 0, loc)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 7)
		}
		return candidate, nil

	case domain.ScheduleMonthly:
		hour, err := requiredHour(spec)
		if err != nil {
			return time.Time{}, err
		}
		if !spec.DayOfMonth.Valid {
			return time.Time{}, fmt.Errorf("monthly schedule requires dayOfMonth")
		}
		day := int(spec.DayOfMonth.Int64)
		// clamp to 28 so february and 30 day months never skip a cycle
		if day > 28 {
			day = 28
		}
		if day < 1 {
			day = 1
		}
		candidate := time.Date(now.Year(), now.Month(), day, hour, spec.Minute, 0, 0, loc)
		if !candidate.After(now) {
			candidate = time.Date(now.Year(), now.Month()+1, day, hour, spec.Minute, 0, 0, loc)
		}
		return candidate, nil

	default:
		return time.Time{}, fmt.Errorf("unknown schedule type: %s", spec.ScheduleType)
	}
}

func requiredHour(spec domain.Schedule) (int, error) {
	if !spec.Hour.Valid {
		return 0, fmt.Errorf("%s schedule requires hour", spec.ScheduleType)
	}
	return int(spec.Hour.Int64), nil
}
