package recurrence

import "time"

// ShouldContinue decides whether a series keeps generating instances.
// A set end date halts the series once the candidate date passes it; the
// boundary date itself is a valid final occurrence. A set maximum count
// halts the series once currentCount reaches it. The constraints are
// independent; with neither set the series runs indefinitely.
func ShouldContinue(next time.Time, endDate *time.Time, maxCount *int, currentCount int) bool {
	if endDate != nil && next.After(*endDate) {
		return false
	}
	if maxCount != nil && currentCount >= *maxCount {
		return false
	}
	return true
}
