package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	AppDirName = "weekly-planner"
	DBFileName = "weekly_planner.db"
)

//go:embed schema.sql
var schemaFS embed.FS

// Open opens the SQLite database at path and makes sure the tasks table
// exists. It is safe to call on every startup.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, &InitializationError{Path: path, Err: fmt.Errorf("db path is required")}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &InitializationError{Path: path, Err: err}
	}

	// One connection: every operation is serialized through the Store lock,
	// and ":memory:" databases are per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applySchema(context.Background(), db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing db", "error", closeErr)
		}
		return nil, &InitializationError{Path: path, Err: err}
	}

	return db, nil
}

// OpenDir creates dir if needed and opens the planner database inside it.
// An empty dir resolves to DefaultDataDir.
func OpenDir(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		resolved, err := DefaultDataDir()
		if err != nil {
			return nil, &InitializationError{Path: dir, Err: err}
		}
		dir = resolved
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, &InitializationError{Path: dir, Err: fmt.Errorf("create data directory: %w", err)}
	}

	sqlDB, err := Open(filepath.Join(dir, DBFileName))
	if err != nil {
		return nil, err
	}
	return NewStore(sqlDB, opts...), nil
}

// OpenFile is OpenDir for an explicit database file path.
func OpenFile(path string, opts ...Option) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, &InitializationError{Path: path, Err: fmt.Errorf("create data directory: %w", err)}
		}
	}

	sqlDB, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewStore(sqlDB, opts...), nil
}

// DefaultDataDir is the application-private directory under the user's
// config directory.
func DefaultDataDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppDirName), nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}
