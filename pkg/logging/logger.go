package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"adisglobe/pkg/config"
)

// RequestLogger is the logger instance for HTTP requests.
var RequestLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Init initializes the logging system based on configuration.
// It returns a cleanup function to close log files.
func Init(cfg *config.LogConfig) (func(), error) {
	SetTrace(strings.EqualFold(strings.TrimSpace(cfg.Server.Level), LevelTrace))

	// Keep the previous run's logs as .old
	rotatePaths(cfg.Server.Path, cfg.Requests.Path)

	var closers []io.Closer

	// Server logger: file, stdout and the capture buffer
	serverHandler, serverFile, err := setupHandler(cfg.Server.Path, cfg.Server.Level, true)
	if err != nil {
		return nil, fmt.Errorf("failed to setup server logger: %w", err)
	}
	closers = append(closers, serverFile)
	slog.SetDefault(slog.New(serverHandler))

	// Requests logger: file only
	requestHandler, requestFile, err := setupHandler(cfg.Requests.Path, cfg.Requests.Level, false)
	if err != nil {
		serverFile.Close()
		return nil, fmt.Errorf("failed to setup requests logger: %w", err)
	}
	closers = append(closers, requestFile)
	RequestLogger = slog.New(requestHandler)

	return func() {
		for _, c := range closers {
			c.Close()
		}
	}, nil
}

// Component returns the default logger tagged with a component name.
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}

// ParseLevel maps TRACE, DEBUG, INFO, WARN and ERROR (any case) to slog
// levels. TRACE maps to DEBUG. Anything else is INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case LevelTrace, "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupHandler(path, levelStr string, stdout bool) (handler slog.Handler, file *os.File, err error) {
	level := ParseLevel(levelStr)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}

	// Append mode; rotation happens in Init
	file, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})

	if !stdout {
		return fileHandler, file, nil
	}

	// Console and capture only see INFO and up
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: max(level, slog.LevelInfo),
	})
	captureHandler := slog.NewTextHandler(GlobalLogCapture, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	return &multiHandler{handlers: []slog.Handler{fileHandler, consoleHandler, captureHandler}}, file, nil
}

// multiHandler fans records out to every handler enabled for their level.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(m.handlers, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

// nolint:gocritic // r must be passed by value to implement slog.Handler
func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m *multiHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	out := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		out[i] = fn(h)
	}
	return &multiHandler{handlers: out}
}

// rotatePaths renames existing log files to .old so each run starts fresh.
func rotatePaths(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			oldPath := p + ".old"
			_ = os.Remove(oldPath)
			_ = os.Rename(p, oldPath)
		}
	}
}
