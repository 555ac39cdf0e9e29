package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"github.com/williampepple1/desktop-weekly-planner/internal/model"
	"github.com/williampepple1/desktop-weekly-planner/internal/planner"
)

const (
	viewHeader = "header"
	viewFooter = "footer"
	viewForm   = "form"
	viewHelp   = "help"

	dayViewPrefix = "day-"
)

type UI struct {
	svc    *planner.Service
	gui    *gocui.Gui
	logger *slog.Logger
	now    func() time.Time

	weekID   string
	tasks    map[model.Day][]model.Task
	focusDay model.Day
	selected map[model.Day]int

	form       *formState
	formEditor *formEditor
	helpActive bool
	status     string
}

type formState struct {
	taskID string
	fields []formField
	index  int
}

type formEditor struct {
	ui *UI
}

func Run(svc *planner.Service, logger *slog.Logger) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(svc, logger)
	ui.gui = gui
	ui.formEditor = &formEditor{ui: ui}

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	if err := ui.loadTasks(); err != nil {
		return err
	}

	if err := gui.MainLoop(); err != nil && !goerrors.Is(err, gocui.ErrQuit) {
		return err
	}

	return nil
}

func newUI(svc *planner.Service, logger *slog.Logger) *UI {
	if logger == nil {
		logger = slog.Default()
	}
	ui := &UI{
		svc:      svc,
		logger:   logger,
		now:      time.Now,
		tasks:    make(map[model.Day][]model.Task),
		selected: make(map[model.Day]int),
	}
	today := ui.now()
	ui.weekID = model.WeekID(today)
	ui.focusDay = model.Days()[(int(today.Weekday())+6)%7]
	return ui
}

func dayView(day model.Day) string {
	return dayViewPrefix + string(day)
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	bindings := []struct {
		view    string
		key     any
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{"", gocui.KeyCtrlC, u.quit},
		{"", 'q', u.quitKey},
		{"", 'r', u.reload},
		{"", 'a', u.addTask},
		{"", 'e', u.editTask},
		{"", 'd', u.deleteTask},
		{"", 'x', u.cycleStatus},
		{"", gocui.KeySpace, u.cycleStatus},
		{"", 'p', u.cyclePriority},
		{"", 'H', u.moveTaskPrevDay},
		{"", 'L', u.moveTaskNextDay},
		{"", '[', u.prevWeek},
		{"", ']', u.nextWeek},
		{"", 't', u.thisWeek},
		{"", 'h', u.focusPrevDay},
		{"", gocui.KeyArrowLeft, u.focusPrevDay},
		{"", 'l', u.focusNextDay},
		{"", gocui.KeyArrowRight, u.focusNextDay},
		{"", gocui.KeyTab, u.switchFocus},
		{"", 'j', u.moveDown},
		{"", gocui.KeyArrowDown, u.moveDown},
		{"", 'k', u.moveUp},
		{"", gocui.KeyArrowUp, u.moveUp},
		{"", '?', u.toggleHelp},
		{viewForm, gocui.KeyEnter, u.submitFormNow},
		{viewForm, gocui.KeyCtrlJ, u.submitFormNow},
		{viewForm, gocui.KeyTab, u.nextFormField},
		{viewForm, gocui.KeyBacktab, u.prevFormField},
		{viewForm, gocui.KeyArrowDown, u.nextFormField},
		{viewForm, gocui.KeyArrowUp, u.prevFormField},
		{viewForm, gocui.KeyEsc, u.cancelForm},
		{viewHelp, gocui.KeyEsc, u.closeHelp},
		{viewHelp, 'q', u.closeHelp},
		{viewHelp, '?', u.closeHelp},
	}

	for _, binding := range bindings {
		if err := gui.SetKeybinding(binding.view, binding.key, gocui.ModNone, binding.handler); err != nil {
			return err
		}
	}

	for _, day := range model.Days() {
		day := day
		if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: dayView(day), Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
			return u.onDayClick(gui, day, opts)
		}}); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	u.renderHeader(headerView)

	footerY1 := max(maxY-1, 2)
	footerY0 := max(footerY1-2, 2)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	bodyTop := 2
	bodyBottom := footerY0 - 1
	if bodyBottom <= bodyTop {
		return nil
	}

	for i, column := range computeLayout(maxX) {
		day := model.Days()[i]
		view, err := gui.SetView(dayView(day), column.x0, bodyTop, column.x1, bodyBottom, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		if goerrors.Is(err, gocui.ErrUnknownView) {
			view.Wrap = false
		}
		view.Title = u.dayTitle(day)
		focused := u.focusDay == day
		applyViewStyle(view, focused, !u.inputActive())
		u.renderDay(view, day, focused)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if !u.inputActive() {
		_, _ = gui.SetCurrentView(dayView(u.focusDay))
	}
	gui.Cursor = u.form != nil

	return nil
}

type column struct {
	x0, x1 int
}

// computeLayout splits the screen into seven day columns; the last one takes
// the remainder.
func computeLayout(width int) []column {
	count := len(model.Days())
	safeWidth := max(width, count*4)
	colWidth := safeWidth / count

	columns := make([]column, count)
	for i := range columns {
		x0 := i * colWidth
		x1 := x0 + colWidth - 1
		if i == count-1 {
			x1 = safeWidth - 1
		}
		columns[i] = column{x0: x0, x1: x1}
	}
	return columns
}

func (u *UI) loadTasks() error {
	tasks, err := u.svc.GetTasksForWeek(context.Background(), u.weekID)
	if err != nil {
		return err
	}

	u.tasks = model.GroupByDay(tasks)
	for _, day := range model.Days() {
		count := len(u.tasks[day])
		if u.selected[day] >= count {
			u.selected[day] = max(count-1, 0)
		}
	}
	return nil
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	total := 0
	completed := 0
	for _, tasks := range u.tasks {
		for _, task := range tasks {
			total++
			if task.Status == model.StatusCompleted {
				completed++
			}
		}
	}
	fmt.Fprintf(view, "Week of %s (%s) | %d/%d completed", model.WeekRange(u.weekID), u.weekID, completed, total)
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	fmt.Fprintln(view, "a add | e edit | d delete | x status | p priority | H/L move day | [/] week | t today | ? help | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) dayTitle(day model.Day) string {
	title := day.Label()
	if date, err := model.DayDate(u.weekID, day); err == nil {
		title = fmt.Sprintf("%s %s", title, date.Format("Jan 2"))
	}
	return fmt.Sprintf("%s (%d)", title, len(u.tasks[day]))
}

func (u *UI) renderDay(view *gocui.View, day model.Day, focused bool) {
	view.Clear()
	tasks := u.tasks[day]
	if len(tasks) == 0 {
		fmt.Fprint(view, "  no tasks")
		return
	}

	selected := u.selected[day]
	for i, task := range tasks {
		prefix := " "
		if focused && i == selected {
			prefix = ">"
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatTaskSummary(task))
	}
	if focused {
		view.SetCursor(0, min(selected, len(tasks)-1))
	}
}

func (u *UI) onDayClick(gui *gocui.Gui, day model.Day, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	view, err := gui.View(dayView(day))
	if err != nil {
		return nil
	}

	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	row := max(opts.Y-y0-1+oy, 0)

	u.focusDay = day
	u.selected[day] = min(row, max(len(u.tasks[day])-1, 0))
	u.syncCurrentView(gui)
	return nil
}

func (u *UI) selectedTask() *model.Task {
	tasks := u.tasks[u.focusDay]
	index := u.selected[u.focusDay]
	if index >= 0 && index < len(tasks) {
		return &tasks[index]
	}
	return nil
}

// selectTask focuses the day holding id, if it is loaded.
func (u *UI) selectTask(id string) {
	for _, day := range model.Days() {
		for i, task := range u.tasks[day] {
			if task.ID == id {
				u.focusDay = day
				u.selected[day] = i
				return
			}
		}
	}
}

func (u *UI) syncCurrentView(gui *gocui.Gui) {
	if gui == nil {
		return
	}
	_, _ = gui.SetCurrentView(dayView(u.focusDay))
}

func (u *UI) focusPrevDay(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.focusDay = u.focusDay.Shift(-1)
	u.syncCurrentView(gui)
	return nil
}

func (u *UI) focusNextDay(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.focusDay = u.focusDay.Shift(1)
	u.syncCurrentView(gui)
	return nil
}

// switchFocus cycles through the days, wrapping from Sunday to Monday.
func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	days := model.Days()
	u.focusDay = days[(u.focusDay.Index()+1)%len(days)]
	u.syncCurrentView(gui)
	return nil
}

func (u *UI) moveDown(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected[u.focusDay] < len(u.tasks[u.focusDay])-1 {
		u.selected[u.focusDay]++
	}
	return nil
}

func (u *UI) moveUp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected[u.focusDay] > 0 {
		u.selected[u.focusDay]--
	}
	return nil
}

func (u *UI) reload(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	return u.loadTasks()
}

func (u *UI) prevWeek(gui *gocui.Gui, _ *gocui.View) error {
	return u.shiftWeek(-1)
}

func (u *UI) nextWeek(gui *gocui.Gui, _ *gocui.View) error {
	return u.shiftWeek(1)
}

func (u *UI) shiftWeek(n int) error {
	if u.inputActive() {
		return nil
	}
	weekID, err := model.ShiftWeek(u.weekID, n)
	if err != nil {
		u.setError("shift week", err)
		return nil
	}
	u.weekID = weekID
	u.selected = make(map[model.Day]int)
	u.status = ""
	return u.loadTasks()
}

func (u *UI) thisWeek(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.weekID = model.WeekID(u.now())
	u.selected = make(map[model.Day]int)
	u.status = ""
	return u.loadTasks()
}

func (u *UI) toggleHelp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	if gui != nil {
		_ = gui.DeleteView(viewHelp)
	}
	u.syncCurrentView(gui)
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 16
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetViewOnTop(viewHelp)
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) addTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.form = &formState{fields: buildFormFields(nil, u.focusDay)}
	return nil
}

func (u *UI) editTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.form = &formState{taskID: selected.ID, fields: buildFormFields(selected, selected.Day)}
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	if u.form == nil {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := min(9, max(7, maxY/2))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	if u.form.taskID != "" {
		view.Title = "Edit Task"
	} else {
		view.Title = "New Task"
	}
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetViewOnTop(viewForm)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

func (u *UI) submitFormNow(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}

	ctx := context.Background()
	id := u.form.taskID
	if id == "" {
		created, err := u.svc.AddTask(ctx, createRequestFromForm(u.form.fields, u.weekID))
		if err != nil {
			u.status = err.Error()
			return nil
		}
		id = created
	} else {
		if _, err := u.svc.UpdateTask(ctx, id, updateRequestFromForm(u.form.fields)); err != nil {
			u.status = err.Error()
			return nil
		}
	}

	u.form = nil
	u.status = ""
	if gui != nil {
		_ = gui.DeleteView(viewForm)
	}
	if err := u.loadTasks(); err != nil {
		return err
	}
	u.selectTask(id)
	u.syncCurrentView(gui)
	return nil
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	if gui != nil {
		_ = gui.DeleteView(viewForm)
	}
	u.syncCurrentView(gui)
	return nil
}

func (u *UI) nextFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(view)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, field.Value)
	}
	current := u.form.fields[u.form.index]
	cursorX := len([]rune(current.Label)) + len([]rune(current.Value)) + 4
	view.SetCursor(cursorX, u.form.index)
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil || view == nil {
		return false
	}
	field := &ui.form.fields[ui.form.index]

	if field.choices != nil {
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.cycle(1)
		case gocui.KeyArrowLeft:
			field.cycle(-1)
		}
		ui.renderForm(view)
		return true
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderForm(view)
	return true
}

func (u *UI) deleteTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	if _, err := u.svc.DeleteTask(context.Background(), selected.ID); err != nil {
		u.setError("delete task", err)
		return nil
	}
	u.status = ""
	return u.loadTasks()
}

func (u *UI) cycleStatus(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	next := selected.Status.Next()
	if _, err := u.svc.UpdateTaskStatus(context.Background(), selected.ID, string(next)); err != nil {
		u.setError("update status", err)
		return nil
	}
	u.status = ""
	return u.loadTasks()
}

func (u *UI) cyclePriority(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	next := string(selected.Priority.Next())
	if _, err := u.svc.UpdateTask(context.Background(), selected.ID, planner.UpdateTaskRequest{Priority: &next}); err != nil {
		u.setError("update priority", err)
		return nil
	}
	u.status = ""
	return u.loadTasks()
}

func (u *UI) moveTaskPrevDay(gui *gocui.Gui, _ *gocui.View) error {
	return u.moveTask(gui, -1)
}

func (u *UI) moveTaskNextDay(gui *gocui.Gui, _ *gocui.View) error {
	return u.moveTask(gui, 1)
}

// moveTask reschedules the selected task to a neighbouring day and keeps it
// selected there.
func (u *UI) moveTask(gui *gocui.Gui, delta int) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	target := selected.Day.Shift(delta)
	if target == selected.Day {
		return nil
	}
	id := selected.ID
	if _, err := u.svc.UpdateTaskDay(context.Background(), id, string(target)); err != nil {
		u.setError("move task", err)
		return nil
	}
	u.status = ""
	if err := u.loadTasks(); err != nil {
		return err
	}
	u.selectTask(id)
	u.syncCurrentView(gui)
	return nil
}

func (u *UI) setError(action string, err error) {
	u.status = fmt.Sprintf("%s: %v", action, err)
	u.logger.Error("tui action failed", "action", action, "error", err)
}

func (u *UI) inputActive() bool {
	return u.form != nil || u.helpActive
}

func (u *UI) quitKey(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	return u.quit(gui, view)
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  h/l or left/right move between days | tab next day",
		"  j/k or arrows move selection | mouse click to select",
		"  [ previous week | ] next week | t this week",
		"",
		"Actions:",
		"  a add task | e edit task | d delete task",
		"  x or space cycle status | p cycle priority",
		"  H move task to previous day | L move task to next day",
		"",
		"Form:",
		"  tab/arrows next field | space/left/right cycle choices",
		"  enter save | esc cancel",
		"",
		"Other:",
		"  r reload | ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}
