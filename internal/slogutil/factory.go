package slogutil

import (
	"io"
	"log/slog"
	"os"

	"kvhttpd/internal/config"
	"kvhttpd/internal/paths"
)

// LoggerFactory builds the process logger from the logging configuration and
// owns the files it opens.
type LoggerFactory struct {
	root    string
	config  *config.Config
	stdout  io.Writer
	stderr  io.Writer
	closers []io.Closer
}

// NewLoggerFactory creates a factory writing console output to os.Stdout and
// os.Stderr. Relative log file paths resolve against root.
func NewLoggerFactory(root string, cfg *config.Config) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{
		root:   root,
		config: cfg,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// WithConsole replaces the console writers.
func (f *LoggerFactory) WithConsole(stdout, stderr io.Writer) *LoggerFactory {
	f.stdout = stdout
	f.stderr = stderr
	return f
}

// ServerLogger returns the logger for the server process: the console split
// between stdout and stderr, tee'd to logging.file when one is configured.
// The file sink always uses the human format.
func (f *LoggerFactory) ServerLogger() (*slog.Logger, error) {
	lc := f.config.Logging
	level := LevelFromString(lc.Level)

	console := NewConsoleHandler(f.stdout, f.stderr, lc.Format, level)
	if lc.File == "" {
		return slog.New(console), nil
	}

	if lc.File == "default" {
		if _, err := paths.EnsureLogsDir(f.root); err != nil {
			return nil, err
		}
	}

	path := f.LogPath()
	w, err := OpenLogFile(path, lc.MaxSize, lc.MaxBackups, lc.Compress)
	if err != nil {
		return nil, err
	}
	f.closers = append(f.closers, w)

	file := NewHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewTeeHandler(console, file)), nil
}

// LogPath returns the resolved log file path. The value "default" selects
// <root>/.kvhttpd/logs/kvhttpd.log.
func (f *LoggerFactory) LogPath() string {
	file := f.config.Logging.File
	if file == "default" {
		return paths.GetLogPath(f.root)
	}
	return paths.Resolve(f.root, file)
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
