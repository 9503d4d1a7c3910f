package timeline

import (
	"slices"
	"time"

	"github.com/benvon/smart-gantt/internal/models"
)

// FilterAll matches any status or priority
const FilterAll = "all"

// Filter narrows the rows shown on the chart
type Filter struct {
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// Matches reports whether a task passes the filter
func (f Filter) Matches(task *models.Task) bool {
	statusMatch := f.Status == "" || f.Status == FilterAll || string(task.Status) == f.Status
	priorityMatch := f.Priority == "" || f.Priority == FilterAll || string(task.Priority) == f.Priority
	return statusMatch && priorityMatch
}

// View is the chart configuration
type View struct {
	Mode   ViewMode `json:"mode"`
	Zoom   int      `json:"zoom"`
	Filter Filter   `json:"filter"`
}

// DefaultView is what a reset produces
func DefaultView() View {
	return View{
		Mode:   ViewWeek,
		Zoom:   DefaultZoom,
		Filter: Filter{Status: FilterAll, Priority: FilterAll},
	}
}

// Row is one rendered line of the chart
type Row struct {
	Index    int                 `json:"index"`
	TaskID   string              `json:"task_id"`
	Name     string              `json:"name"`
	Level    models.TaskLevel    `json:"level"`
	Status   models.TaskStatus   `json:"status"`
	Priority models.TaskPriority `json:"priority"`
	Progress int                 `json:"progress"`
	Bar      Bar                 `json:"bar"`
}

// Chart is the full layout of a task set
type Chart struct {
	View         View     `json:"view"`
	Range        Range    `json:"range"`
	PixelsPerDay float64  `json:"pixels_per_day"`
	TotalWidth   float64  `json:"total_width"`
	Markers      []Marker `json:"markers"`
	Rows         []Row    `json:"rows"`
}

// Layout lays out tasks for a view. The axis spans all tasks; rows include only
// tasks that pass the filter and whose main activity, if any, is expanded.
// Filtered-out tasks occupy no row.
func Layout(tasks []*models.Task, view View, now time.Time) Chart {
	view.Zoom = ClampZoom(view.Zoom)
	if _, ok := basePixelsPerDay[view.Mode]; !ok {
		view.Mode = ViewWeek
	}

	r := ComputeRange(tasks, now)
	ppd := PixelsPerDay(view.Mode, view.Zoom)

	collapsed := make(map[string]bool)
	for _, t := range tasks {
		if t.IsMain() && !t.IsExpanded {
			collapsed[t.ID] = true
		}
	}

	chart := Chart{
		View:         view,
		Range:        r,
		PixelsPerDay: ppd,
		TotalWidth:   float64(r.TotalDays) * ppd,
		Markers:      slices.Collect(Markers(r, view.Mode, ppd)),
		Rows:         make([]Row, 0, len(tasks)),
	}

	for _, t := range OrderForDisplay(tasks) {
		if t.ParentID != nil && collapsed[*t.ParentID] {
			continue
		}
		if !view.Filter.Matches(t) {
			continue
		}
		chart.Rows = append(chart.Rows, Row{
			Index:    len(chart.Rows),
			TaskID:   t.ID,
			Name:     t.Name,
			Level:    t.Level,
			Status:   t.Status,
			Priority: t.Priority,
			Progress: t.Progress,
			Bar:      Position(r, t, ppd),
		})
	}

	return chart
}

// OrderForDisplay places each main task directly above its children.
// Orphaned sub tasks follow at the end in their original order.
func OrderForDisplay(tasks []*models.Task) []*models.Task {
	byParent := make(map[string][]*models.Task)
	var mains, orphans []*models.Task
	for _, t := range tasks {
		switch {
		case t.IsMain():
			mains = append(mains, t)
		case t.ParentID != nil:
			byParent[*t.ParentID] = append(byParent[*t.ParentID], t)
		default:
			orphans = append(orphans, t)
		}
	}

	ordered := make([]*models.Task, 0, len(tasks))
	for _, m := range mains {
		ordered = append(ordered, m)
		ordered = append(ordered, byParent[m.ID]...)
		delete(byParent, m.ID)
	}
	// Children whose parent is not in this set are treated as orphans
	for _, t := range tasks {
		if t.ParentID != nil {
			if _, ok := byParent[*t.ParentID]; ok {
				orphans = append(orphans, t)
			}
		}
	}
	return append(ordered, orphans...)
}
