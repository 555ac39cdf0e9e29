package tui

import (
	"fmt"

	"github.com/williampepple1/desktop-weekly-planner/internal/model"
)

func statusMarker(status model.Status) string {
	switch status {
	case model.StatusCompleted:
		return "[x]"
	case model.StatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

func priorityMarker(priority model.Priority) string {
	switch priority {
	case model.PriorityHigh:
		return "!!!"
	case model.PriorityMedium:
		return "!! "
	default:
		return "!  "
	}
}

func formatTaskSummary(task model.Task) string {
	return fmt.Sprintf("%s %s %s", statusMarker(task.Status), priorityMarker(task.Priority), task.Title)
}
