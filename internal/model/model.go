package model

import "time"

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Day         Day       `json:"day"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	WeekID      string    `json:"week_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTask holds the caller-supplied fields of a task; the store assigns the
// id and both timestamps.
type NewTask struct {
	Title       string
	Description *string
	Day         Day
	Status      Status
	Priority    Priority
	WeekID      string
}

// TaskUpdate is a partial update. Nil fields are left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Day         *Day
	Status      *Status
	Priority    *Priority
}

func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Day == nil && u.Status == nil && u.Priority == nil
}

func (t Task) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

func StringPtr(value string) *string {
	return &value
}

// GroupByDay buckets tasks by day, keeping their order within each day.
// Tasks with an unknown day are dropped.
func GroupByDay(tasks []Task) map[Day][]Task {
	grouped := make(map[Day][]Task, len(Days()))
	for _, task := range tasks {
		if !task.Day.Valid() {
			continue
		}
		grouped[task.Day] = append(grouped[task.Day], task)
	}
	return grouped
}
