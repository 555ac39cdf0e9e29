package db

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/williampepple1/desktop-weekly-planner/internal/model"
)

// Fixed-width UTC so that created_at sorts lexically and round-trips exactly.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const taskColumns = "id, title, description, day, status, priority, week_id, created_at, updated_at"

// Store owns the planner database. All operations are serialized by mu and
// run to completion while holding it.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
	id  func() string

	last     time.Time
	closed   bool
	poisoned bool
}

type Option func(*Store)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator, mainly for tests.
func WithIDGenerator(id func() string) Option {
	return func(s *Store) { s.id = id }
}

func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now, id: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) CreateTask(ctx context.Context, input model.NewTask) (string, error) {
	var id string
	err := s.withLock("create task", func() error {
		id = s.id()
		now := formatTimestamp(s.stamp())
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO tasks (`+taskColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, input.Title, nullString(input.Description),
			string(input.Day), string(input.Status), string(input.Priority),
			input.WeekID, now, now,
		)
		if err != nil {
			return &PersistenceError{Op: "create task", Err: err}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListTasksForWeek(ctx context.Context, weekID string) ([]model.Task, error) {
	var tasks []model.Task
	err := s.withLock("list tasks", func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+taskColumns+`
			 FROM tasks
			 WHERE week_id = ?
			 ORDER BY created_at ASC, rowid ASC`,
			weekID,
		)
		if err != nil {
			return &PersistenceError{Op: "list tasks", Err: err}
		}
		defer rows.Close()

		tasks = make([]model.Task, 0)
		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				return err
			}
			tasks = append(tasks, task)
		}
		if err := rows.Err(); err != nil {
			return &PersistenceError{Op: "list tasks", Err: err}
		}

		// Imported rows may carry non-UTC offsets, which the text sort above
		// orders wrongly. Re-sort by instant; ties keep insertion order.
		slices.SortStableFunc(tasks, func(a, b model.Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (model.Task, error) {
	var task model.Task
	err := s.withLock("get task", func() error {
		row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
		scanned, err := scanTask(row)
		if err != nil {
			return err
		}
		task = scanned
		return nil
	})
	return task, err
}

// UpdateTask writes every supplied field and a single updated_at refresh in
// one statement. It returns the number of rows changed, which is zero when
// id does not exist or the update is empty.
func (s *Store) UpdateTask(ctx context.Context, id string, update model.TaskUpdate) (int64, error) {
	if update.IsEmpty() {
		return 0, s.withLock("update task", func() error { return nil })
	}

	var affected int64
	err := s.withLock("update task", func() error {
		assignments, args := updateAssignments(update)
		assignments = append(assignments, "updated_at = ?")
		args = append(args, formatTimestamp(s.stamp()), id)

		result, err := s.db.ExecContext(ctx,
			`UPDATE tasks SET `+strings.Join(assignments, ", ")+` WHERE id = ?`,
			args...,
		)
		if err != nil {
			return &PersistenceError{Op: "update task", Err: err}
		}
		affected, err = result.RowsAffected()
		if err != nil {
			return &PersistenceError{Op: "update task", Err: err}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (s *Store) UpdateTaskStatus(ctx context.Context, id string, status model.Status) (int64, error) {
	return s.UpdateTask(ctx, id, model.TaskUpdate{Status: &status})
}

func (s *Store) UpdateTaskDay(ctx context.Context, id string, day model.Day) (int64, error) {
	return s.UpdateTask(ctx, id, model.TaskUpdate{Day: &day})
}

// DeleteTask removes the task with id. Deleting a missing task is not an
// error; the returned count is zero.
func (s *Store) DeleteTask(ctx context.Context, id string) (int64, error) {
	var affected int64
	err := s.withLock("delete task", func() error {
		result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
		if err != nil {
			return &PersistenceError{Op: "delete task", Err: err}
		}
		affected, err = result.RowsAffected()
		if err != nil {
			return &PersistenceError{Op: "delete task", Err: err}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (s *Store) withLock(op string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return &LockError{Op: op, Reason: "poisoned by an earlier panic"}
	}
	if s.closed {
		return &LockError{Op: op, Reason: "store is closed"}
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			panic(r)
		}
	}()

	return fn()
}

// stamp returns the current time, strictly after any instant it returned
// before. Callers must hold mu.
func (s *Store) stamp() time.Time {
	now := s.now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Nanosecond)
	}
	s.last = now
	return now
}

func updateAssignments(update model.TaskUpdate) ([]string, []any) {
	assignments := make([]string, 0, 6)
	args := make([]any, 0, 7)
	if update.Title != nil {
		assignments = append(assignments, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Description != nil {
		assignments = append(assignments, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Day != nil {
		assignments = append(assignments, "day = ?")
		args = append(args, string(*update.Day))
	}
	if update.Status != nil {
		assignments = append(assignments, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.Priority != nil {
		assignments = append(assignments, "priority = ?")
		args = append(args, string(*update.Priority))
	}
	return assignments, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (model.Task, error) {
	var (
		task        model.Task
		description sql.NullString
		day         string
		status      string
		priority    string
		createdAt   string
		updatedAt   string
	)
	if err := row.Scan(
		&task.ID, &task.Title, &description, &day, &status, &priority,
		&task.WeekID, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrTaskNotFound
		}
		return model.Task{}, &PersistenceError{Op: "scan task", Err: err}
	}

	if description.Valid {
		task.Description = &description.String
	}
	task.Day = model.Day(day)
	task.Status = model.Status(status)
	task.Priority = model.Priority(priority)

	var err error
	if task.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return model.Task{}, &DecodeError{TaskID: task.ID, Column: "created_at", Value: createdAt, Err: err}
	}
	if task.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return model.Task{}, &DecodeError{TaskID: task.ID, Column: "updated_at", Value: updatedAt, Err: err}
	}

	return task, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTimestamp also accepts plain RFC 3339 offsets such as "+00:00" or
// "+02:00". The result is always UTC.
func parseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
