// Package timeline maps tasks onto a shared horizontal time axis.
// Every function here is pure: output depends only on the tasks and view passed in.
package timeline

import (
	"fmt"
	"math"
)

// ViewMode is the axis granularity
type ViewMode string

const (
	ViewDay     ViewMode = "day"
	ViewWeek    ViewMode = "week"
	ViewMonth   ViewMode = "month"
	ViewQuarter ViewMode = "quarter"
)

const (
	// MinZoom is the smallest zoom percentage
	MinZoom = 25
	// MaxZoom is the largest zoom percentage
	MaxZoom = 200
	// ZoomStep is the zoom increment
	ZoomStep = 25
	// DefaultZoom is the zoom used by a reset view
	DefaultZoom = 100
	// MinBarWidth keeps zero-length bars visible and draggable
	MinBarWidth = 20.0
	// PaddingDays pads the axis on both ends so bars never touch the viewport edge
	PaddingDays = 7
)

// basePixelsPerDay must stay ordered day > week > month > quarter
var basePixelsPerDay = map[ViewMode]float64{
	ViewDay:     40,
	ViewWeek:    20,
	ViewMonth:   8,
	ViewQuarter: 3,
}

var markerStepDays = map[ViewMode]int{
	ViewDay:     1,
	ViewWeek:    7,
	ViewMonth:   30,
	ViewQuarter: 90,
}

// ParseViewMode validates a view mode string
func ParseViewMode(s string) (ViewMode, error) {
	mode := ViewMode(s)
	if _, ok := basePixelsPerDay[mode]; !ok {
		return "", fmt.Errorf("invalid view mode: %s (must be 'day', 'week', 'month', or 'quarter')", s)
	}
	return mode, nil
}

// ClampZoom clamps zoom to [MinZoom, MaxZoom] and snaps it to the nearest ZoomStep
func ClampZoom(zoom int) int {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return int(math.Round(float64(zoom)/ZoomStep)) * ZoomStep
}

// ZoomIn returns the next zoom level up
func ZoomIn(zoom int) int {
	return ClampZoom(ClampZoom(zoom) + ZoomStep)
}

// ZoomOut returns the next zoom level down
func ZoomOut(zoom int) int {
	return ClampZoom(ClampZoom(zoom) - ZoomStep)
}

// PixelsPerDay is the horizontal scale for a view mode at a zoom percentage
func PixelsPerDay(mode ViewMode, zoom int) float64 {
	base, ok := basePixelsPerDay[mode]
	if !ok {
		base = basePixelsPerDay[ViewWeek]
	}
	return base * float64(ClampZoom(zoom)) / 100
}
