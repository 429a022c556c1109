package recurrence

import (
	"errors"
	"fmt"
	"time"

	"taskflow/internal/model"
)

// ErrInvalidPattern is returned when a recurrence pattern string is not one
// of the supported values.
var ErrInvalidPattern = errors.New("invalid recurrence pattern")

// DateOnly truncates a timestamp to its calendar date. Recurrence math
// operates on bare dates; normalizing to UTC midnight keeps stored
// scheduled dates comparable by equality.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextOccurrence computes the date of the occurrence following current for
// the given pattern. interval is the multiplier (1 = every occurrence,
// 2 = every other); values below 1 are treated as 1. weekday anchors
// weekly and biweekly patterns to a day of the week and is ignored for the
// other patterns.
//
// Month-based patterns use calendar month addition with day overflow
// rolling into the following month, so Jan 31 + 1 month lands in early
// March when February lacks a 31st. Yearly moves Feb 29 to Mar 1 in
// non-leap target years.
func NextOccurrence(current time.Time, pattern model.RecurrencePattern, interval int, weekday *time.Weekday) (time.Time, error) {
	if interval < 1 {
		interval = 1
	}

	switch pattern {
	case model.RecurrenceDaily:
		return current.AddDate(0, 0, interval), nil
	case model.RecurrenceWeekly:
		if weekday != nil {
			return NextWeekdayAfterWeeks(current, *weekday, interval), nil
		}
		return current.AddDate(0, 0, 7*interval), nil
	case model.RecurrenceBiweekly:
		if weekday != nil {
			return NextWeekdayAfterWeeks(current, *weekday, 2*interval), nil
		}
		return current.AddDate(0, 0, 14*interval), nil
	case model.RecurrenceMonthly:
		return current.AddDate(0, interval, 0), nil
	case model.RecurrenceQuarterly:
		return current.AddDate(0, 3*interval, 0), nil
	case model.RecurrenceYearly:
		return current.AddDate(interval, 0, 0), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPattern, string(pattern))
}

// NextWeekdayOnOrAfter returns the first date whose day of week equals
// target, starting the search at from; from itself qualifies when it
// already falls on target. Used only during series creation to align the
// initial due date with a weekday preference.
func NextWeekdayOnOrAfter(from time.Time, target time.Weekday) time.Time {
	days := int(target - from.Weekday())
	if days < 0 {
		days += 7
	}
	return from.AddDate(0, 0, days)
}

// NextWeekdayAfterWeeks finds target's upcoming occurrence within the seven
// days after from, then advances by weeks additional full weeks. With
// weeks >= 1 the result is strictly after from in every case, including
// when from already falls on target.
func NextWeekdayAfterWeeks(from time.Time, target time.Weekday, weeks int) time.Time {
	days := int(target - from.Weekday())
	if days < 0 {
		days += 7
	}
	return from.AddDate(0, 0, days+weeks*7)
}
