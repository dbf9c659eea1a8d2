package slogutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// RotatingFile implements io.WriteCloser with size-based rotation.
// It rotates the file when a write would exceed maxSize bytes, keeping up to
// maxBackups rotated files (log.1, log.2, ...). With compression enabled the
// backups are gzip files (log.1.gz, log.2.gz, ...).
type RotatingFile struct {
	path       string
	maxSize    int64
	maxBackups int
	compress   bool
	file       *os.File
	size       int64
	mu         sync.Mutex
}

// RotationOptions configures OpenRotatingFile.
type RotationOptions struct {
	MaxSize    int64 // 0 disables rotation
	MaxBackups int   // 0 deletes the file on rotation
	Compress   bool
}

// OpenRotatingFile opens path for appending with rotation support.
func OpenRotatingFile(path string, opts RotationOptions) (*RotatingFile, error) {
	rf := &RotatingFile{
		path:       path,
		maxSize:    opts.MaxSize,
		maxBackups: opts.MaxBackups,
		compress:   opts.Compress,
	}

	if err := rf.openFile(); err != nil {
		return nil, err
	}
	return rf, nil
}

// openFile opens or creates the log file and gets its current size
func (r *RotatingFile) openFile() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}

	r.file = f
	r.size = info.Size()
	return nil
}

// Write implements io.Writer. It rotates the file if needed before writing.
func (r *RotatingFile) Write(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSize > 0 && r.size > 0 && r.size+int64(len(p)) > r.maxSize {
		// A failed rotation still writes to whatever file is open.
		_ = r.rotate()
	}

	n, err = r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// Close implements io.Closer
func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// rotate performs the rotation: log -> log.1 -> log.2 -> ...
func (r *RotatingFile) rotate() error {
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return err
		}
	}

	for i := r.maxBackups; i >= 1; i-- {
		oldPath := r.backupPath(i)
		if i == r.maxBackups {
			_ = os.Remove(oldPath)
			continue
		}
		if _, err := os.Stat(oldPath); err == nil {
			_ = os.Rename(oldPath, r.backupPath(i+1))
		}
	}

	if r.maxBackups > 0 {
		plain := fmt.Sprintf("%s.1", r.path)
		if err := os.Rename(r.path, plain); err == nil && r.compress {
			if err := compressFile(plain, r.backupPath(1)); err == nil {
				_ = os.Remove(plain)
			}
		}
	} else {
		_ = os.Remove(r.path)
	}

	r.size = 0
	return r.openFile()
}

// backupPath returns the path for backup n (log.1 or log.1.gz)
func (r *RotatingFile) backupPath(n int) string {
	if r.compress {
		return fmt.Sprintf("%s.%d.gz", r.path, n)
	}
	return fmt.Sprintf("%s.%d", r.path, n)
}

// compressFile gzips src into dst.
func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	zw := gzip.NewWriter(out)
	zw.Name = filepath.Base(src)
	if _, err := io.Copy(zw, in); err != nil {
		_ = zw.Close()
		_ = out.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(B|KB|MB|GB)?$`)

// ParseSize parses a size string like "10MB", "1GB", "500KB" into bytes.
// Supported suffixes: B, KB, MB, GB (case-insensitive)
// Returns 0 for empty or invalid strings.
func ParseSize(s string) int64 {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return 0
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0
	}

	multiplier := 1.0
	switch matches[2] {
	case "KB":
		multiplier = 1024
	case "MB":
		multiplier = 1024 * 1024
	case "GB":
		multiplier = 1024 * 1024 * 1024
	}
	return int64(value * multiplier)
}

// OpenLogFile opens path for a log sink: rotating when maxSize parses to a
// positive size, a plain append-only file otherwise.
func OpenLogFile(path, maxSize string, maxBackups int, compress bool) (io.WriteCloser, error) {
	size := ParseSize(maxSize)
	if size <= 0 {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	}
	return OpenRotatingFile(path, RotationOptions{MaxSize: size, MaxBackups: maxBackups, Compress: compress})
}
