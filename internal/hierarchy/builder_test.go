package hierarchy

import (
	"errors"
	"testing"
	"time"

	"github.com/benvon/smart-gantt/internal/models"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func strPtr(s string) *string {
	return &s
}

func row(id, name string, isTitle bool, start, end string) models.FlatRow {
	return models.FlatRow{
		Name:         name,
		ItemID:       id,
		ActivityType: "sub activity",
		IsTitle:      isTitle,
		StartDate:    strPtr(start),
		EndDate:      strPtr(end),
		Team:         "Team A",
		Status:       "gestart",
		Completed:    40,
	}
}

func newTestBuilder() *Builder {
	return NewBuilder(WithClock(func() time.Time { return fixedNow }))
}

func findTask(t *testing.T, tasks []*models.Task, id string) *models.Task {
	t.Helper()
	for _, task := range tasks {
		if task.ID == id {
			return task
		}
	}
	t.Fatalf("task %q not found", id)
	return nil
}

func TestBuild_EndToEndTwoMainsThreeSubs(t *testing.T) {
	t.Parallel()

	rows := []models.FlatRow{
		row("1", "Planning", true, "2024-01-01", "2024-01-20"),
		row("1.1", "Scope", false, "2024-01-01", "2024-01-05"),
		row("2", "Requirements", true, "2024-01-15", "2024-02-10"),
		row("1.2", "Charter", false, "2024-01-06", "2024-01-12"),
		row("2.1", "Interviews", false, "2024-01-15", "2024-01-25"),
	}

	result, err := newTestBuilder().Build(rows)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(result.Tasks) != 5 {
		t.Fatalf("Expected 5 tasks, got %d", len(result.Tasks))
	}

	mains, subs := 0, 0
	for _, task := range result.Tasks {
		switch task.Level {
		case models.LevelMain:
			mains++
		case models.LevelSub:
			subs++
		}
	}
	if mains != 2 {
		t.Errorf("Expected 2 main tasks, got %d", mains)
	}
	if subs != 3 {
		t.Errorf("Expected 3 sub tasks, got %d", subs)
	}

	main1 := findTask(t, result.Tasks, "1")
	if len(main1.Children) != 2 {
		t.Errorf("Expected main task 1 to have 2 children, got %d", len(main1.Children))
	}
	if !main1.IsExpanded {
		t.Error("Expected main task with children to be expanded")
	}

	// Mains first, then subs, each in encounter order
	wantOrder := []string{"1", "2", "1.1", "1.2", "2.1"}
	for i, id := range wantOrder {
		if result.Tasks[i].ID != id {
			t.Errorf("Expected task %d to be %q, got %q", i, id, result.Tasks[i].ID)
		}
	}

	if len(result.Diagnostics) != 0 {
		t.Errorf("Expected no diagnostics, got %v", result.Diagnostics)
	}
}

func TestBuild_ParentResolution(t *testing.T) {
	t.Parallel()

	rows := []models.FlatRow{
		row("1", "Planning", true, "2024-01-01", "2024-01-20"),
		row("1.1", "Scope", false, "2024-01-01", "2024-01-05"),
		row("9.1", "Stray", false, "2024-01-01", "2024-01-05"),
		row("7", "No dot", false, "2024-01-01", "2024-01-05"),
	}

	result, err := newTestBuilder().Build(rows)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	sub := findTask(t, result.Tasks, "1.1")
	if sub.ParentID == nil || *sub.ParentID != "1" {
		t.Errorf("Expected parent of 1.1 to be '1', got %v", sub.ParentID)
	}

	stray := findTask(t, result.Tasks, "9.1")
	if stray.ParentID != nil {
		t.Errorf("Expected orphan 9.1 to have no parent, got %q", *stray.ParentID)
	}
	noDot := findTask(t, result.Tasks, "7")
	if noDot.ParentID != nil {
		t.Errorf("Expected sub task without dot to have no parent, got %q", *noDot.ParentID)
	}

	orphans := 0
	for _, d := range result.Diagnostics {
		if d.Kind == DiagnosticOrphanedSubtask {
			orphans++
		}
	}
	if orphans != 2 {
		t.Errorf("Expected 2 orphan diagnostics, got %d", orphans)
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	t.Parallel()

	result, err := newTestBuilder().Build(nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(result.Tasks) != 0 {
		t.Errorf("Expected no tasks, got %d", len(result.Tasks))
	}
}

func TestBuild_DuplicateIDsRejected(t *testing.T) {
	t.Parallel()

	rows := []models.FlatRow{
		row("1", "Planning", true, "2024-01-01", "2024-01-20"),
		row("1", "Planning again", true, "2024-01-01", "2024-01-20"),
	}

	_, err := newTestBuilder().Build(rows)
	var dupErr *DuplicateIDError
	if !errors.As(err, &dupErr) {
		t.Fatalf("Expected DuplicateIDError, got %v", err)
	}
	if len(dupErr.IDs) != 1 || dupErr.IDs[0] != "1" {
		t.Errorf("Expected duplicate ids [1], got %v", dupErr.IDs)
	}
}

func TestBuild_DefaultsAndDerivedFields(t *testing.T) {
	t.Parallel()

	rows := []models.FlatRow{
		{Name: "No dates", IsTitle: true, Status: "Akkoord", ActivityType: "Critical path", Completed: 150},
	}

	result, err := newTestBuilder().Build(rows)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	task := result.Tasks[0]
	if task.ID != "task-0" {
		t.Errorf("Expected generated id 'task-0', got %q", task.ID)
	}
	today := models.NormalizeDate(fixedNow)
	if !task.StartDate.Equal(today) || !task.EndDate.Equal(today) {
		t.Errorf("Expected dates to default to %v, got %v - %v", today, task.StartDate, task.EndDate)
	}
	if task.Duration != 0 {
		t.Errorf("Expected duration 0, got %d", task.Duration)
	}
	if task.Status != models.TaskStatusCompleted {
		t.Errorf("Expected status Completed, got %s", task.Status)
	}
	if task.Priority != models.TaskPriorityHigh {
		t.Errorf("Expected priority High, got %s", task.Priority)
	}
	if task.Progress != 100 {
		t.Errorf("Expected progress clamped to 100, got %d", task.Progress)
	}
	if task.IsExpanded {
		t.Error("Expected main task without children to be collapsed")
	}
	if len(task.AuditTrail) != 1 || task.AuditTrail[0].Type != models.AuditTypeSystem {
		t.Errorf("Expected one system audit entry, got %v", task.AuditTrail)
	}

	kinds := map[DiagnosticKind]int{}
	for _, d := range result.Diagnostics {
		kinds[d.Kind]++
	}
	if kinds[DiagnosticDefaultedDate] != 2 {
		t.Errorf("Expected 2 defaulted date diagnostics, got %d", kinds[DiagnosticDefaultedDate])
	}
	if kinds[DiagnosticClampedProgress] != 1 {
		t.Errorf("Expected 1 clamped progress diagnostic, got %d", kinds[DiagnosticClampedProgress])
	}
}

func TestBuild_DurationIsCeilOfSpan(t *testing.T) {
	t.Parallel()

	rows := []models.FlatRow{row("1", "Planning", true, "2024-01-01", "2024-01-20")}
	result, err := newTestBuilder().Build(rows)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if result.Tasks[0].Duration != 19 {
		t.Errorf("Expected duration 19, got %d", result.Tasks[0].Duration)
	}
}
