package slogutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kvhttpd/internal/config"
	"kvhttpd/internal/paths"
)

func TestLoggerFactory_ConsoleOnly(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := NewLoggerFactory(t.TempDir(), nil).WithConsole(&stdout, &stderr)
	defer f.Close()

	logger, err := f.ServerLogger()
	if err != nil {
		t.Fatalf("ServerLogger() error = %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")

	if strings.Contains(stdout.String(), "hidden") {
		t.Error("debug record should be filtered at the default level")
	}
	if !strings.Contains(stdout.String(), "shown") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestLoggerFactory_FileSink(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Logging.File = "default"
	cfg.Logging.Level = "debug"

	var stdout, stderr bytes.Buffer
	f := NewLoggerFactory(root, cfg).WithConsole(&stdout, &stderr)

	if got := f.LogPath(); got != paths.GetLogPath(root) {
		t.Errorf("LogPath() = %q, want %q", got, paths.GetLogPath(root))
	}

	logger, err := f.ServerLogger()
	if err != nil {
		t.Fatalf("ServerLogger() error = %v", err)
	}
	logger.Error("Handler failed", "endpoint", "/x")
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(paths.GetLogPath(root))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "[error] Handler failed | endpoint=/x") {
		t.Errorf("file content = %q", data)
	}
	if !strings.Contains(stderr.String(), "Handler failed") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestLoggerFactory_RelativeFile(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Logging.File = filepath.Join("var", "server.log")

	f := NewLoggerFactory(root, cfg)
	if got, want := f.LogPath(), filepath.Join(root, "var", "server.log"); got != want {
		t.Errorf("LogPath() = %q, want %q", got, want)
	}
}
