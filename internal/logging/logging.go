package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger that writes human-readable lines to stdout and JSON
// lines to the append-only file at logPath. An empty logPath logs to stdout
// only. The returned closer releases the log file.
func New(level, logPath string) (*zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if logPath == "" {
		l := zerolog.New(console).Level(lvl).With().Timestamp().Logger()
		return &l, nopCloser{}, nil
	}

	if dir := filepath.Dir(logPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	l := zerolog.New(zerolog.MultiLevelWriter(console, f)).Level(lvl).With().Timestamp().Logger()
	return &l, f, nil
}

// Component returns a child logger tagged with the component name.
func Component(base *zerolog.Logger, name string) *zerolog.Logger {
	l := base.With().Str("component", name).Logger()
	return &l
}

// Nop is a disabled logger for tests and callers that do not log.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
