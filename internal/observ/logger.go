package observ

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type LogConfig struct {
	Level  string
	Format string // "json" or "text"
	// File enables a rotating file sink teed with stdout.
	File       string
	MaxBytes   uint64
	MaxBackups int
}

// NewLogger builds the process logger. The returned closer flushes the file
// sink and is a no-op when no file is configured.
func NewLogger(cfg LogConfig, stdout io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	if stdout == nil {
		stdout = os.Stdout
	}
	var (
		w      = stdout
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		sink := NewFileSink(cfg.File, cfg.MaxBytes, cfg.MaxBackups)
		w = io.MultiWriter(stdout, sink)
		closer = sink
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		h = slog.NewJSONHandler(w, opts)
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return slog.New(h), closer, nil
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NewFileSink returns a size-rotated log file. lumberjack counts in
// megabytes, so maxBytes is rounded up to the next whole megabyte.
func NewFileSink(path string, maxBytes uint64, maxBackups int) *lumberjack.Logger {
	const mb = 1 << 20
	size := int((maxBytes + mb - 1) / mb)
	if size < 1 {
		size = 1
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    size,
		MaxBackups: maxBackups,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
