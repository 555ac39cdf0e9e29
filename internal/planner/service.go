// Package planner is the boundary between the presentation layers and the
// task store. It turns raw request strings into the model's closed tag sets,
// rejects invalid input before it reaches storage, and logs and measures
// every operation.
package planner

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/williampepple1/desktop-weekly-planner/internal/db"
	"github.com/williampepple1/desktop-weekly-planner/internal/metrics"
	"github.com/williampepple1/desktop-weekly-planner/internal/model"
)

// TaskStore is the persistence the service needs. *db.Store implements it.
type TaskStore interface {
	CreateTask(ctx context.Context, input model.NewTask) (string, error)
	ListTasksForWeek(ctx context.Context, weekID string) ([]model.Task, error)
	GetTask(ctx context.Context, id string) (model.Task, error)
	UpdateTask(ctx context.Context, id string, update model.TaskUpdate) (int64, error)
	UpdateTaskStatus(ctx context.Context, id string, status model.Status) (int64, error)
	UpdateTaskDay(ctx context.Context, id string, day model.Day) (int64, error)
	DeleteTask(ctx context.Context, id string) (int64, error)
}

type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Day         string  `json:"day"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	WeekID      string  `json:"week_id"`
}

// UpdateTaskRequest is a partial update; nil fields are not changed.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Day         *string `json:"day,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

const (
	opCreate       = "create_task"
	opList         = "list_tasks_for_week"
	opGet          = "get_task"
	opUpdate       = "update_task"
	opDelete       = "delete_task"
	opUpdateStatus = "update_task_status"
	opUpdateDay    = "update_task_day"
)

type Service struct {
	store  TaskStore
	logger *slog.Logger
}

func NewService(store TaskStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

func (s *Service) AddTask(ctx context.Context, req CreateTaskRequest) (id string, err error) {
	defer s.observe(opCreate, time.Now(), &err, "week_id", req.WeekID)

	input, err := parseCreate(req)
	if err != nil {
		return "", err
	}
	id, err = s.store.CreateTask(ctx, input)
	if err != nil {
		return "", err
	}
	s.logger.Debug("task created", "task_id", id, "week_id", input.WeekID, "day", input.Day)
	return id, nil
}

func (s *Service) GetTasksForWeek(ctx context.Context, weekID string) (tasks []model.Task, err error) {
	defer s.observe(opList, time.Now(), &err, "week_id", weekID)

	normalized, err := model.NormalizeWeekID(weekID)
	if err != nil {
		return nil, invalid(err)
	}
	return s.store.ListTasksForWeek(ctx, normalized)
}

func (s *Service) GetTask(ctx context.Context, id string) (task model.Task, err error) {
	defer s.observe(opGet, time.Now(), &err, "task_id", id)

	if err = checkID(id); err != nil {
		return model.Task{}, err
	}
	return s.store.GetTask(ctx, id)
}

// UpdateTask applies the supplied fields and returns how many tasks changed.
// Zero means id matched nothing; that is not an error.
func (s *Service) UpdateTask(ctx context.Context, id string, req UpdateTaskRequest) (affected int64, err error) {
	defer s.observe(opUpdate, time.Now(), &err, "task_id", id)

	if err = checkID(id); err != nil {
		return 0, err
	}
	update, err := parseUpdate(req)
	if err != nil {
		return 0, err
	}
	affected, err = s.store.UpdateTask(ctx, id, update)
	s.noteMiss(opUpdate, id, affected, err, !update.IsEmpty())
	return affected, err
}

func (s *Service) DeleteTask(ctx context.Context, id string) (affected int64, err error) {
	defer s.observe(opDelete, time.Now(), &err, "task_id", id)

	if err = checkID(id); err != nil {
		return 0, err
	}
	affected, err = s.store.DeleteTask(ctx, id)
	s.noteMiss(opDelete, id, affected, err, true)
	return affected, err
}

func (s *Service) UpdateTaskStatus(ctx context.Context, id, status string) (affected int64, err error) {
	defer s.observe(opUpdateStatus, time.Now(), &err, "task_id", id)

	if err = checkID(id); err != nil {
		return 0, err
	}
	parsed, err := model.ParseStatus(status)
	if err != nil {
		return 0, invalid(err)
	}
	affected, err = s.store.UpdateTaskStatus(ctx, id, parsed)
	s.noteMiss(opUpdateStatus, id, affected, err, true)
	return affected, err
}

func (s *Service) UpdateTaskDay(ctx context.Context, id, day string) (affected int64, err error) {
	defer s.observe(opUpdateDay, time.Now(), &err, "task_id", id)

	if err = checkID(id); err != nil {
		return 0, err
	}
	parsed, err := model.ParseDay(day)
	if err != nil {
		return 0, invalid(err)
	}
	affected, err = s.store.UpdateTaskDay(ctx, id, parsed)
	s.noteMiss(opUpdateDay, id, affected, err, true)
	return affected, err
}

func (s *Service) observe(op string, start time.Time, errp *error, attrs ...any) {
	metrics.RecordDuration(op, time.Since(start).Seconds())

	err := *errp
	switch {
	case err == nil:
		metrics.RecordOperation(op, metrics.StatusSuccess)
	case IsValidation(err):
		metrics.RecordOperation(op, metrics.StatusInvalid)
		s.logger.Warn("rejected "+op, append(attrs, "error", err)...)
	case errors.Is(err, db.ErrTaskNotFound):
		metrics.RecordOperation(op, metrics.StatusNotFound)
		s.logger.Warn(op+" found no task", attrs...)
	default:
		metrics.RecordOperation(op, metrics.StatusError)
		s.logger.Error(op+" failed", append(attrs, "error", err)...)
	}
}

func (s *Service) noteMiss(op, id string, affected int64, err error, wrote bool) {
	if err != nil || affected > 0 || !wrote {
		return
	}
	metrics.RecordNoopWrite(op)
	s.logger.Debug(op+" matched no task", "task_id", id)
}

func parseCreate(req CreateTaskRequest) (model.NewTask, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return model.NewTask{}, &ValidationError{Field: "title", Message: "title is required"}
	}

	day, err := model.ParseDay(req.Day)
	if err != nil {
		return model.NewTask{}, invalid(err)
	}

	status := model.StatusTodo
	if strings.TrimSpace(req.Status) != "" {
		if status, err = model.ParseStatus(req.Status); err != nil {
			return model.NewTask{}, invalid(err)
		}
	}

	priority := model.PriorityMedium
	if strings.TrimSpace(req.Priority) != "" {
		if priority, err = model.ParsePriority(req.Priority); err != nil {
			return model.NewTask{}, invalid(err)
		}
	}

	weekID, err := model.NormalizeWeekID(req.WeekID)
	if err != nil {
		return model.NewTask{}, invalid(err)
	}

	return model.NewTask{
		Title:       title,
		Description: req.Description,
		Day:         day,
		Status:      status,
		Priority:    priority,
		WeekID:      weekID,
	}, nil
}

func parseUpdate(req UpdateTaskRequest) (model.TaskUpdate, error) {
	var update model.TaskUpdate

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return model.TaskUpdate{}, &ValidationError{Field: "title", Message: "title cannot be empty"}
		}
		update.Title = &title
	}
	update.Description = req.Description

	if req.Day != nil {
		day, err := model.ParseDay(*req.Day)
		if err != nil {
			return model.TaskUpdate{}, invalid(err)
		}
		update.Day = &day
	}
	if req.Status != nil {
		status, err := model.ParseStatus(*req.Status)
		if err != nil {
			return model.TaskUpdate{}, invalid(err)
		}
		update.Status = &status
	}
	if req.Priority != nil {
		priority, err := model.ParsePriority(*req.Priority)
		if err != nil {
			return model.TaskUpdate{}, invalid(err)
		}
		update.Priority = &priority
	}

	return update, nil
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Message: "task id is required"}
	}
	return nil
}

// ValidationError is returned for input rejected before it reaches the store.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func invalid(err error) error {
	var value *model.InvalidValueError
	if errors.As(err, &value) {
		return &ValidationError{Field: value.Field, Message: value.Error(), Err: err}
	}
	return &ValidationError{Message: err.Error(), Err: err}
}
