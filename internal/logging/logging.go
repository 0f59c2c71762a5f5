// Package logging builds the process-wide structured logger.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Rotation limits for a log file.
const (
	MaxFileSizeMB = 1
	MaxBackups    = 3
)

// ErrInvalidOption indicates an unknown level or format.
var ErrInvalidOption = errors.New("invalid logging option")

// Options configures New.
type Options struct {
	Level  string // debug, info, warn or error; empty means info
	Format string // text or json; empty means text

	// File, when set, receives the logs instead of Writer and is rotated
	// once it reaches MaxFileSizeMB.
	File string

	Writer io.Writer
}

// New returns a logger and a closer releasing the log file, if any.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		w      = opts.Writer
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    MaxFileSizeMB,
			MaxBackups: MaxBackups,
		}
		w, closer = rotator, rotator
	}
	if w == nil {
		w = io.Discard
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		handler = slog.NewTextHandler(w, handlerOpts)
	case FormatJSON:
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		_ = closer.Close()
		return nil, nil, fmt.Errorf("format %q (want text or json): %w", opts.Format, ErrInvalidOption)
	}

	return slog.New(handler), closer, nil
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("level %q (want debug, info, warn or error): %w", s, ErrInvalidOption)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
