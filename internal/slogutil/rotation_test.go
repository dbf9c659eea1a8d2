package slogutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"", 0},
		{"invalid", 0},
		{"100", 100},
		{"100B", 100},
		{"100b", 100},
		{"1KB", 1024},
		{"10kb", 10240},
		{"1MB", 1024 * 1024},
		{"10MB", 10 * 1024 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"1.5MB", int64(1.5 * 1024 * 1024)},
		{" 2 KB ", 2048},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := ParseSize(tt.input); result != tt.expected {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, result, tt.expected)
			}
		})
	}
}

func writeLines(t *testing.T, w io.Writer, n int, line string) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := io.WriteString(w, line); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}
}

func TestRotatingFile_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kvhttpd.log")

	rf, err := OpenRotatingFile(path, RotationOptions{MaxSize: 50, MaxBackups: 2})
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}

	line := strings.Repeat("a", 29) + "\n"
	writeLines(t, rf, 5, line)
	rf.Close()

	if _, err := os.Stat(path); err != nil {
		t.Error("Main log file should exist")
	}
	if _, err := os.Stat(path + ".1"); err != nil {
		t.Error("Backup .1 should exist")
	}
	if _, err := os.Stat(path + ".2"); err != nil {
		t.Error("Backup .2 should exist")
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Error("Backup .3 should not exist with MaxBackups 2")
	}
}

func TestRotatingFile_CompressedBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "kvhttpd.log")

	rf, err := OpenRotatingFile(path, RotationOptions{MaxSize: 50, MaxBackups: 3, Compress: true})
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}

	first := strings.Repeat("x", 39) + "\n"
	writeLines(t, rf, 1, first)
	writeLines(t, rf, 1, strings.Repeat("y", 39)+"\n")
	rf.Close()

	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("uncompressed backup should be removed")
	}

	f, err := os.Open(path + ".1.gz")
	if err != nil {
		t.Fatalf("compressed backup missing: %v", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("backup is not gzip: %v", err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}
	if string(data) != first {
		t.Errorf("backup content = %q, want %q", data, first)
	}
}

func TestRotatingFile_NoBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kvhttpd.log")

	rf, err := OpenRotatingFile(path, RotationOptions{MaxSize: 20, MaxBackups: 0})
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}
	writeLines(t, rf, 3, "0123456789abcde\n")
	rf.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "0123456789abcde\n" {
		t.Errorf("log content = %q", data)
	}
	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("no backup should be kept")
	}
}

func TestOpenLogFile(t *testing.T) {
	dir := t.TempDir()

	rotating, err := OpenLogFile(filepath.Join(dir, "a.log"), "1MB", 3, true)
	if err != nil {
		t.Fatalf("OpenLogFile failed: %v", err)
	}
	defer rotating.Close()
	if _, ok := rotating.(*RotatingFile); !ok {
		t.Errorf("expected a rotating file, got %T", rotating)
	}
	NewLogger(rotating, slog.LevelInfo).Info("hello")

	plain, err := OpenLogFile(filepath.Join(dir, "nested", "b.log"), "", 3, false)
	if err != nil {
		t.Fatalf("OpenLogFile without rotation failed: %v", err)
	}
	defer plain.Close()
	if _, ok := plain.(*os.File); !ok {
		t.Errorf("expected a plain file, got %T", plain)
	}
}
