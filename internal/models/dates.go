package models

import (
	"math"
	"time"
)

// Day is the length of one calendar day
const Day = 24 * time.Hour

// DateLayout is the wire format for calendar dates in spreadsheet records
const DateLayout = "2006-01-02"

// NormalizeDate truncates t to midnight UTC of its calendar day
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DurationDays returns ceil((end - start) / 1 day), the derived task duration
func DurationDays(start, end time.Time) int {
	return int(math.Ceil(float64(end.Sub(start)) / float64(Day)))
}

// DaysBetween returns floor((to - from) / 1 day)
func DaysBetween(from, to time.Time) int {
	return int(math.Floor(float64(to.Sub(from)) / float64(Day)))
}

// AddDays shifts a calendar date by n days
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}
