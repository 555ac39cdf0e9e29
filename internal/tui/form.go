package tui

import (
	"strings"

	"github.com/williampepple1/desktop-weekly-planner/internal/model"
	"github.com/williampepple1/desktop-weekly-planner/internal/planner"
)

// formField is one line of the task form. Fields with choices cycle through
// them instead of accepting typed text.
type formField struct {
	Label   string
	Value   string
	choices []string
}

const (
	fieldTitle = iota
	fieldDescription
	fieldDay
	fieldStatus
	fieldPriority
)

func (f *formField) cycle(delta int) {
	if len(f.choices) == 0 {
		return
	}
	current := 0
	for i, choice := range f.choices {
		if choice == f.Value {
			current = i
			break
		}
	}
	next := (current + delta) % len(f.choices)
	if next < 0 {
		next += len(f.choices)
	}
	f.Value = f.choices[next]
}

func buildFormFields(task *model.Task, day model.Day) []formField {
	fields := []formField{
		{Label: "Title"},
		{Label: "Description"},
		{Label: "Day (space/←→)", choices: choiceList(model.Days())},
		{Label: "Status (space/←→)", choices: choiceList(model.Statuses())},
		{Label: "Priority (space/←→)", choices: choiceList(model.Priorities())},
	}

	if task == nil {
		fields[fieldDay].Value = string(day)
		fields[fieldStatus].Value = string(model.StatusTodo)
		fields[fieldPriority].Value = string(model.PriorityMedium)
		return fields
	}

	fields[fieldTitle].Value = task.Title
	fields[fieldDescription].Value = task.DescriptionText()
	fields[fieldDay].Value = string(task.Day)
	fields[fieldStatus].Value = string(task.Status)
	fields[fieldPriority].Value = string(task.Priority)
	return fields
}

func createRequestFromForm(fields []formField, weekID string) planner.CreateTaskRequest {
	return planner.CreateTaskRequest{
		Title:       fields[fieldTitle].Value,
		Description: descriptionFromForm(fields),
		Day:         fields[fieldDay].Value,
		Status:      fields[fieldStatus].Value,
		Priority:    fields[fieldPriority].Value,
		WeekID:      weekID,
	}
}

// updateRequestFromForm sends every field; an emptied description is stored
// as an empty string rather than left untouched.
func updateRequestFromForm(fields []formField) planner.UpdateTaskRequest {
	description := strings.TrimSpace(fields[fieldDescription].Value)
	return planner.UpdateTaskRequest{
		Title:       stringPtr(fields[fieldTitle].Value),
		Description: &description,
		Day:         stringPtr(fields[fieldDay].Value),
		Status:      stringPtr(fields[fieldStatus].Value),
		Priority:    stringPtr(fields[fieldPriority].Value),
	}
}

func descriptionFromForm(fields []formField) *string {
	description := strings.TrimSpace(fields[fieldDescription].Value)
	if description == "" {
		return nil
	}
	return &description
}

func choiceList[T ~string](values []T) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		result = append(result, string(value))
	}
	return result
}

func stringPtr(value string) *string {
	return &value
}
