// Package paths resolves the on-disk locations kvhttpd uses under a project
// root: <root>/.kvhttpd/{config.toml,cache.db,logs/kvhttpd.log}.
package paths

import (
	"os"
	"path/filepath"
)

const (
	// DataDirName is the per-project directory holding config, snapshot and logs.
	DataDirName = ".kvhttpd"

	// ConfigEnvVar names a config file that replaces <root>/.kvhttpd/config.toml.
	ConfigEnvVar = "KVHTTPD_CONFIG"

	configFileName   = "config.toml"
	snapshotFileName = "cache.db"
	logsDirName      = "logs"
	logFileName      = "kvhttpd.log"
)

// GetDataDir returns <root>/.kvhttpd
func GetDataDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// GetConfigPath returns <root>/.kvhttpd/config.toml
func GetConfigPath(root string) string {
	return filepath.Join(GetDataDir(root), configFileName)
}

// GetSnapshotPath returns <root>/.kvhttpd/cache.db
func GetSnapshotPath(root string) string {
	return filepath.Join(GetDataDir(root), snapshotFileName)
}

// GetLogsDir returns <root>/.kvhttpd/logs
func GetLogsDir(root string) string {
	return filepath.Join(GetDataDir(root), logsDirName)
}

// GetLogPath returns <root>/.kvhttpd/logs/kvhttpd.log
func GetLogPath(root string) string {
	return filepath.Join(GetLogsDir(root), logFileName)
}

// EnsureDataDir creates <root>/.kvhttpd if needed and returns it.
func EnsureDataDir(root string) (string, error) {
	dir := GetDataDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// EnsureLogsDir creates <root>/.kvhttpd/logs if needed and returns it.
func EnsureLogsDir(root string) (string, error) {
	dir := GetLogsDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// Resolve returns p unchanged when it is absolute, otherwise p joined to root.
// An empty p resolves to the empty string.
func Resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
