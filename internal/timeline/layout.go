package timeline

import (
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/benvon/smart-gantt/internal/models"
)

// Range is the visible time axis
type Range struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	TotalDays int       `json:"total_days"`
}

// ComputeRange pads the min start and max end of tasks by PaddingDays.
// An empty task set collapses to now with zero days.
func ComputeRange(tasks []*models.Task, now time.Time) Range {
	if len(tasks) == 0 {
		return Range{Start: now, End: now, TotalDays: 0}
	}

	minDate, maxDate := tasks[0].StartDate, tasks[0].EndDate
	for _, t := range tasks {
		for _, d := range []time.Time{t.StartDate, t.EndDate} {
			if d.Before(minDate) {
				minDate = d
			}
			if d.After(maxDate) {
				maxDate = d
			}
		}
	}

	start := models.AddDays(minDate, -PaddingDays)
	end := models.AddDays(maxDate, PaddingDays)
	return Range{Start: start, End: end, TotalDays: models.DurationDays(start, end)}
}

// Marker is one axis label
type Marker struct {
	Date  time.Time `json:"date"`
	X     float64   `json:"x"`
	Label string    `json:"label"`
}

// Markers lazily yields axis labels from r.Start to r.End inclusive
func Markers(r Range, mode ViewMode, pixelsPerDay float64) iter.Seq[Marker] {
	step, ok := markerStepDays[mode]
	if !ok {
		step = markerStepDays[ViewWeek]
	}
	return func(yield func(Marker) bool) {
		for current := r.Start; !current.After(r.End); current = models.AddDays(current, step) {
			m := Marker{
				Date:  current,
				X:     float64(models.DaysBetween(r.Start, current)) * pixelsPerDay,
				Label: markerLabel(current, mode),
			}
			if !yield(m) {
				return
			}
		}
	}
}

func markerLabel(d time.Time, mode ViewMode) string {
	switch mode {
	case ViewDay:
		return fmt.Sprintf("%d", d.Day())
	case ViewMonth:
		return d.Format("Jan")
	case ViewQuarter:
		return fmt.Sprintf("Q%d", (int(d.Month())+2)/3)
	default:
		return fmt.Sprintf("W%d", int(math.Ceil(float64(d.Day())/7)))
	}
}

// Bar is the screen-space interval of a task
type Bar struct {
	Left  float64 `json:"left"`
	Width float64 `json:"width"`
}

// Position maps a task onto the axis. Width never drops below MinBarWidth.
func Position(r Range, task *models.Task, pixelsPerDay float64) Bar {
	startDays := models.DaysBetween(r.Start, task.StartDate)
	endDays := models.DaysBetween(r.Start, task.EndDate)
	return Bar{
		Left:  float64(startDays) * pixelsPerDay,
		Width: math.Max(float64(endDays-startDays)*pixelsPerDay, MinBarWidth),
	}
}
