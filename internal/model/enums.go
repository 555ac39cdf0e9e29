package model

import (
	"fmt"
	"strings"
)

type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

var days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Days returns the weekdays in planner order, Monday first.
func Days() []Day {
	result := make([]Day, len(days))
	copy(result, days)
	return result
}

func (d Day) Valid() bool {
	return d.Index() >= 0
}

// Index is the zero-based position of d in the week, or -1.
func (d Day) Index() int {
	for i, candidate := range days {
		if candidate == d {
			return i
		}
	}
	return -1
}

// Label is the capitalised day name used by the boards.
func (d Day) Label() string {
	if d == "" {
		return ""
	}
	value := string(d)
	return strings.ToUpper(value[:1]) + value[1:]
}

// Shift moves d by delta days, clamped to the week.
func (d Day) Shift(delta int) Day {
	index := d.Index()
	if index < 0 {
		return d
	}
	index += delta
	if index < 0 {
		index = 0
	}
	if index >= len(days) {
		index = len(days) - 1
	}
	return days[index]
}

func ParseDay(value string) (Day, error) {
	day := Day(normalize(value))
	if !day.Valid() {
		return "", &InvalidValueError{Field: "day", Value: value}
	}
	return day, nil
}

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

var statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted}

func Statuses() []Status {
	result := make([]Status, len(statuses))
	copy(result, statuses)
	return result
}

func (s Status) Valid() bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Next cycles todo -> in-progress -> completed -> todo.
func (s Status) Next() Status {
	return cycle(statuses, s, 1)
}

func (s Status) Prev() Status {
	return cycle(statuses, s, -1)
}

func ParseStatus(value string) (Status, error) {
	status := Status(normalize(value))
	if !status.Valid() {
		return "", &InvalidValueError{Field: "status", Value: value}
	}
	return status, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func Priorities() []Priority {
	result := make([]Priority, len(priorities))
	copy(result, priorities)
	return result
}

func (p Priority) Valid() bool {
	for _, candidate := range priorities {
		if candidate == p {
			return true
		}
	}
	return false
}

func (p Priority) Next() Priority {
	return cycle(priorities, p, 1)
}

func (p Priority) Prev() Priority {
	return cycle(priorities, p, -1)
}

func ParsePriority(value string) (Priority, error) {
	priority := Priority(normalize(value))
	if !priority.Valid() {
		return "", &InvalidValueError{Field: "priority", Value: value}
	}
	return priority, nil
}

// InvalidValueError reports a tag outside its closed set.
type InvalidValueError struct {
	Field string
	Value string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func normalize(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

func cycle[T ~string](order []T, current T, delta int) T {
	index := 0
	for i, candidate := range order {
		if candidate == current {
			index = i
			break
		}
	}
	index = (index + delta + len(order)) % len(order)
	return order[index]
}
