// Package logging configures the process-wide slog logger.
package logging

import (
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level string
	// File is the log file path. Empty logs to stderr.
	File string
	// Verbose forces debug level.
	Verbose bool
	// Console sends output to stderr instead of File. Leave it off while a
	// terminal UI owns the screen.
	Console bool
}

// Init builds the logger described by cfg and installs it as the slog default.
// The returned closer flushes and closes the log file, if any.
func Init(cfg Config) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	if cfg.File != "" && !cfg.Console {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, err
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = rotating
		closer = rotating
	}

	logger := New(out, level)
	slog.SetDefault(logger)

	// The standard log package is used by some dependencies; keep it in the same place.
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags)

	return logger, closer, nil
}

func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("invalid log level: " + level)
	}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *slog.Logger {
	return New(io.Discard, slog.LevelError+1)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
