// Package models defines data structures for the weekly snapshot.
package models

import "time"

// GeneratedAtLayout renders UTC timestamps with microseconds and an explicit offset.
const GeneratedAtLayout = "2006-01-02T15:04:05.000000-07:00"

// Snapshot is the record written for one manual week. Field order is the JSON key order.
type Snapshot struct {
	GeneratedAtUTC string `json:"generated_at_utc"`
	WeekNumber     int    `json:"week_number"`
	SourceURL      string `json:"source_url"`
	ImageURL       string `json:"image_url"`
	SmallHeading   string `json:"small_heading"`
	BigHeading     string `json:"big_heading"`
}

// FormatGeneratedAt formats t in UTC using GeneratedAtLayout.
func FormatGeneratedAt(t time.Time) string {
	return t.UTC().Format(GeneratedAtLayout)
}

// RunResult summarizes a run for logs and the CLI summary.
type RunResult struct {
	Snapshot   *Snapshot
	OutputFile string
	StartTime  time.Time
	EndTime    time.Time
	StatusCode int
	BodyBytes  int
}
