package slogutil

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// LevelSilent is above every standard level.
const LevelSilent = slog.Level(100)

// NewLogger creates a logger in the human format.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewFormatHandler returns a handler for format: "json" selects
// slog.JSONHandler, anything else the human format.
func NewFormatHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return NewHandler(w, opts)
}

// NewDiscardLogger creates a logger that discards all output.
func NewDiscardLogger() *slog.Logger {
	return slog.New(NewHandler(io.Discard, &slog.HandlerOptions{Level: LevelSilent}))
}

// LevelFromString converts a string to a slog.Level.
// Supports: debug, info, warn, error (case-insensitive).
// Returns slog.LevelInfo for unrecognized strings.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SplitHandler sends records below a threshold to one handler and the rest
// to another. The console logger uses it to keep errors on stderr.
type SplitHandler struct {
	low       slog.Handler
	high      slog.Handler
	threshold slog.Level
}

// NewSplitHandler routes records below threshold to low, others to high.
func NewSplitHandler(low, high slog.Handler, threshold slog.Level) *SplitHandler {
	return &SplitHandler{low: low, high: high, threshold: threshold}
}

// NewConsoleHandler writes records below error to stdout and error records to
// stderr.
func NewConsoleHandler(stdout, stderr io.Writer, format string, level slog.Level) *SplitHandler {
	return NewSplitHandler(
		NewFormatHandler(stdout, format, level),
		NewFormatHandler(stderr, format, level),
		slog.LevelError,
	)
}

func (s *SplitHandler) target(level slog.Level) slog.Handler {
	if level < s.threshold {
		return s.low
	}
	return s.high
}

// Enabled defers to the handler the level routes to.
func (s *SplitHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return s.target(level).Enabled(ctx, level)
}

// Handle writes the record to the handler its level routes to.
func (s *SplitHandler) Handle(ctx context.Context, r slog.Record) error {
	return s.target(r.Level).Handle(ctx, r)
}

func (s *SplitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SplitHandler{low: s.low.WithAttrs(attrs), high: s.high.WithAttrs(attrs), threshold: s.threshold}
}

func (s *SplitHandler) WithGroup(name string) slog.Handler {
	return &SplitHandler{low: s.low.WithGroup(name), high: s.high.WithGroup(name), threshold: s.threshold}
}

// TeeHandler writes logs to multiple handlers.
type TeeHandler struct {
	handlers []slog.Handler
}

// NewTeeHandler creates a handler that writes to all provided handlers.
func NewTeeHandler(handlers ...slog.Handler) *TeeHandler {
	return &TeeHandler{handlers: handlers}
}

// Enabled returns true if any handler is enabled for the level.
func (t *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes the record to all handlers.
func (t *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// WithAttrs returns a new TeeHandler with attributes added to all handlers.
func (t *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &TeeHandler{handlers: newHandlers}
}

// WithGroup returns a new TeeHandler with the group added to all handlers.
func (t *TeeHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &TeeHandler{handlers: newHandlers}
}
