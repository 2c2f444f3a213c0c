// Package schedule maps calendar dates onto manual weeks.
package schedule

import "time"

// MaxWeek is the last week the manual publishes.
const MaxWeek = 52

// WeekNumber returns the ISO-8601 week of t clamped to [1, MaxWeek].
// Week 53 of long ISO years reuses the final lesson.
func WeekNumber(t time.Time) int {
	_, week := t.ISOWeek()
	return ClampWeek(week)
}

// ClampWeek forces w into [1, MaxWeek].
func ClampWeek(w int) int {
	if w < 1 {
		return 1
	}
	if w > MaxWeek {
		return MaxWeek
	}
	return w
}
