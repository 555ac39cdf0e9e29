package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/williampepple1/desktop-weekly-planner/internal/db"
	"github.com/williampepple1/desktop-weekly-planner/internal/logging"
	"github.com/williampepple1/desktop-weekly-planner/internal/model"
	"github.com/williampepple1/desktop-weekly-planner/internal/planner"
)

const testWeek = "2024-01-01"

func TestCycleStatusAndPriority(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	addTask(t, svc, "Cycle me", model.Monday)

	ui := newTestUI(t, svc)
	ui.focusDay = model.Monday

	wantStatuses := []model.Status{model.StatusInProgress, model.StatusCompleted, model.StatusTodo}
	for _, want := range wantStatuses {
		if err := ui.cycleStatus(nil, nil); err != nil {
			t.Fatalf("cycle status: %v", err)
		}
		if got := onlyTask(t, svc).Status; got != want {
			t.Fatalf("expected status %q, got %q", want, got)
		}
	}

	if err := ui.cyclePriority(nil, nil); err != nil {
		t.Fatalf("cycle priority: %v", err)
	}
	if got := onlyTask(t, svc).Priority; got != model.PriorityHigh {
		t.Fatalf("expected priority high, got %q", got)
	}
}

func TestMoveTaskFollowsSelection(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	id := addTask(t, svc, "Move me", model.Monday)

	ui := newTestUI(t, svc)
	ui.focusDay = model.Monday

	if err := ui.moveTaskNextDay(nil, nil); err != nil {
		t.Fatalf("move next: %v", err)
	}
	task := onlyTask(t, svc)
	if task.Day != model.Tuesday {
		t.Fatalf("expected tuesday, got %q", task.Day)
	}
	if ui.focusDay != model.Tuesday {
		t.Fatalf("expected focus to follow the task, got %q", ui.focusDay)
	}
	if selected := ui.selectedTask(); selected == nil || selected.ID != id {
		t.Fatalf("expected moved task to stay selected")
	}

	if err := ui.moveTaskPrevDay(nil, nil); err != nil {
		t.Fatalf("move prev: %v", err)
	}
	if err := ui.moveTaskPrevDay(nil, nil); err != nil {
		t.Fatalf("move prev at monday: %v", err)
	}
	if got := onlyTask(t, svc).Day; got != model.Monday {
		t.Fatalf("expected monday, got %q", got)
	}
}

func TestFormCreatesAndEditsTask(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	ui := newTestUI(t, svc)
	ui.focusDay = model.Wednesday

	if err := ui.addTask(nil, nil); err != nil {
		t.Fatalf("add task: %v", err)
	}
	if ui.form == nil {
		t.Fatalf("expected form to open")
	}
	if got := ui.form.fields[fieldDay].Value; got != string(model.Wednesday) {
		t.Fatalf("expected form day to default to focused day, got %q", got)
	}

	if err := ui.submitFormNow(nil, nil); err != nil {
		t.Fatalf("submit empty form: %v", err)
	}
	if ui.form == nil || ui.status == "" {
		t.Fatalf("expected blank title to keep the form open with an error")
	}

	ui.form.fields[fieldTitle].Value = "Dentist"
	ui.form.fields[fieldDescription].Value = "  10am  "
	ui.form.fields[fieldPriority].cycle(1)
	if err := ui.submitFormNow(nil, nil); err != nil {
		t.Fatalf("submit form: %v", err)
	}
	if ui.form != nil {
		t.Fatalf("expected form to close")
	}

	task := onlyTask(t, svc)
	if task.Title != "Dentist" || task.DescriptionText() != "10am" {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.Day != model.Wednesday || task.Priority != model.PriorityHigh || task.WeekID != testWeek {
		t.Fatalf("unexpected task fields: %+v", task)
	}

	if err := ui.editTask(nil, nil); err != nil {
		t.Fatalf("edit task: %v", err)
	}
	if ui.form == nil || ui.form.taskID != task.ID {
		t.Fatalf("expected edit form for the selected task")
	}
	ui.form.fields[fieldTitle].Value = "Dentist appointment"
	ui.form.fields[fieldDescription].Value = ""
	if err := ui.submitFormNow(nil, nil); err != nil {
		t.Fatalf("submit edit: %v", err)
	}

	task = onlyTask(t, svc)
	if task.Title != "Dentist appointment" || task.DescriptionText() != "" {
		t.Fatalf("unexpected edited task: %+v", task)
	}
}

func TestDeleteTask(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	addTask(t, svc, "Keep", model.Friday)
	addTask(t, svc, "Drop", model.Friday)

	ui := newTestUI(t, svc)
	ui.focusDay = model.Friday
	if err := ui.moveDown(nil, nil); err != nil {
		t.Fatalf("move down: %v", err)
	}
	if err := ui.deleteTask(nil, nil); err != nil {
		t.Fatalf("delete task: %v", err)
	}

	task := onlyTask(t, svc)
	if task.Title != "Keep" {
		t.Fatalf("expected Keep to remain, got %q", task.Title)
	}
	if ui.selected[model.Friday] != 0 {
		t.Fatalf("expected selection to be clamped, got %d", ui.selected[model.Friday])
	}
}

func TestWeekNavigation(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	addTask(t, svc, "This week", model.Monday)

	ui := newTestUI(t, svc)
	if err := ui.nextWeek(nil, nil); err != nil {
		t.Fatalf("next week: %v", err)
	}
	if ui.weekID != "2024-01-08" {
		t.Fatalf("expected 2024-01-08, got %s", ui.weekID)
	}
	if len(ui.tasks[model.Monday]) != 0 {
		t.Fatalf("expected next week to be empty")
	}

	if err := ui.prevWeek(nil, nil); err != nil {
		t.Fatalf("prev week: %v", err)
	}
	if err := ui.prevWeek(nil, nil); err != nil {
		t.Fatalf("prev week: %v", err)
	}
	if ui.weekID != "2023-12-25" {
		t.Fatalf("expected 2023-12-25, got %s", ui.weekID)
	}

	if err := ui.thisWeek(nil, nil); err != nil {
		t.Fatalf("this week: %v", err)
	}
	if ui.weekID != testWeek || len(ui.tasks[model.Monday]) != 1 {
		t.Fatalf("expected to return to %s with its task", testWeek)
	}
}

func TestDayFocusNavigation(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	ui := newTestUI(t, svc)
	ui.focusDay = model.Monday

	_ = ui.focusPrevDay(nil, nil)
	if ui.focusDay != model.Monday {
		t.Fatalf("expected focus to stay on monday, got %q", ui.focusDay)
	}
	_ = ui.focusNextDay(nil, nil)
	if ui.focusDay != model.Tuesday {
		t.Fatalf("expected tuesday, got %q", ui.focusDay)
	}

	ui.focusDay = model.Sunday
	_ = ui.switchFocus(nil, nil)
	if ui.focusDay != model.Monday {
		t.Fatalf("expected tab to wrap to monday, got %q", ui.focusDay)
	}
}

func TestKeysIgnoredWhileFormOpen(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	addTask(t, svc, "Untouched", model.Monday)

	ui := newTestUI(t, svc)
	ui.focusDay = model.Monday
	_ = ui.addTask(nil, nil)

	if err := ui.cycleStatus(nil, nil); err != nil {
		t.Fatalf("cycle status: %v", err)
	}
	if got := onlyTask(t, svc).Status; got != model.StatusTodo {
		t.Fatalf("expected status unchanged while form is open, got %q", got)
	}
	if err := ui.quitKey(nil, nil); err != nil {
		t.Fatalf("expected q to be ignored while form is open, got %v", err)
	}

	_ = ui.cancelForm(nil, nil)
	if ui.form != nil {
		t.Fatalf("expected form to close")
	}
}

func TestFormatTaskSummary(t *testing.T) {
	task := model.Task{Title: "Ship it", Status: model.StatusCompleted, Priority: model.PriorityHigh}
	summary := formatTaskSummary(task)
	if !strings.HasPrefix(summary, "[x] !!!") || !strings.HasSuffix(summary, "Ship it") {
		t.Fatalf("unexpected summary %q", summary)
	}
}

func TestComputeLayoutCoversWidth(t *testing.T) {
	columns := computeLayout(100)
	if len(columns) != 7 {
		t.Fatalf("expected 7 columns, got %d", len(columns))
	}
	if columns[0].x0 != 0 || columns[6].x1 != 99 {
		t.Fatalf("unexpected bounds: %+v", columns)
	}
	for i := 1; i < len(columns); i++ {
		if columns[i].x0 != columns[i-1].x1+1 {
			t.Fatalf("columns %d and %d are not adjacent", i-1, i)
		}
	}
}

func addTask(t *testing.T, svc *planner.Service, title string, day model.Day) string {
	t.Helper()
	id, err := svc.AddTask(context.Background(), planner.CreateTaskRequest{
		Title:  title,
		Day:    string(day),
		WeekID: testWeek,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return id
}

func onlyTask(t *testing.T, svc *planner.Service) model.Task {
	t.Helper()
	tasks, err := svc.GetTasksForWeek(context.Background(), testWeek)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	return tasks[0]
}

func newTestUI(t *testing.T, svc *planner.Service) *UI {
	t.Helper()
	ui := newUI(svc, logging.Discard())
	ui.now = func() time.Time { return time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC) }
	ui.weekID = testWeek
	if err := ui.loadTasks(); err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	return ui
}

func newTestService(t *testing.T) (*planner.Service, func()) {
	t.Helper()
	dbConn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	store := db.NewStore(dbConn)
	return planner.NewService(store, logging.Discard()), func() {
		_ = store.Close()
	}
}
