package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"kvhttpd/internal/arghelper"
	"kvhttpd/internal/errors"
	"kvhttpd/internal/paths"
)

// Config represents the complete kvhttpd configuration
type Config struct {
	Server  ServerConfig  `toml:"server" mapstructure:"server"`
	Cache   CacheConfig   `toml:"cache" mapstructure:"cache"`
	Routes  RoutesConfig  `toml:"routes" mapstructure:"routes"`
	Logging LoggingConfig `toml:"logging" mapstructure:"logging"`
}

// ServerConfig contains listener configuration
type ServerConfig struct {
	Host            string `toml:"host" mapstructure:"host"`
	Port            int    `toml:"port" mapstructure:"port"`
	Method          string `toml:"method" mapstructure:"method"`
	MaxRequestBytes int    `toml:"maxRequestBytes" mapstructure:"maxRequestBytes"`
}

// CacheConfig controls the sqlite snapshot of the shared cache
type CacheConfig struct {
	Snapshot     bool   `toml:"snapshot" mapstructure:"snapshot"`
	SnapshotPath string `toml:"snapshotPath" mapstructure:"snapshotPath"` // empty = .kvhttpd/cache.db
}

// RoutesConfig points at the static route manifest
type RoutesConfig struct {
	Manifest string `toml:"manifest" mapstructure:"manifest"`
	BaseDir  string `toml:"baseDir" mapstructure:"baseDir"` // empty = manifest directory
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	Format     string `toml:"format" mapstructure:"format"` // human or json
	File       string `toml:"file" mapstructure:"file"`
	MaxSize    string `toml:"maxSize" mapstructure:"maxSize"` // e.g. "10MB"; empty disables rotation
	MaxBackups int    `toml:"maxBackups" mapstructure:"maxBackups"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Method:          "asynchttp",
			MaxRequestBytes: 512,
		},
		Cache: CacheConfig{
			Snapshot: false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "human",
			MaxSize:    "10MB",
			MaxBackups: 3,
			Compress:   true,
		},
	}
}

// EnvOverride records one environment variable applied to the config
type EnvOverride struct {
	EnvVar string
	Key    string
	Value  string
}

// LoadResult is the outcome of LoadConfigWithDetails
type LoadResult struct {
	Config       *Config
	ConfigPath   string // empty when no file was read
	UsedDefaults bool
	EnvOverrides []EnvOverride
}

// envBindings maps environment variables to config keys.
var envBindings = []struct {
	env string
	key string
}{
	{"KVHTTPD_HOST", "server.host"},
	{"KVHTTPD_PORT", "server.port"},
	{"KVHTTPD_METHOD", "server.method"},
	{"KVHTTPD_MAX_REQUEST_BYTES", "server.maxRequestBytes"},
	{"KVHTTPD_CACHE_SNAPSHOT", "cache.snapshot"},
	{"KVHTTPD_CACHE_SNAPSHOT_PATH", "cache.snapshotPath"},
	{"KVHTTPD_ROUTES_MANIFEST", "routes.manifest"},
	{"KVHTTPD_ROUTES_BASE_DIR", "routes.baseDir"},
	{"KVHTTPD_LOG_LEVEL", "logging.level"},
	{"KVHTTPD_LOG_FORMAT", "logging.format"},
	{"KVHTTPD_LOG_FILE", "logging.file"},
	{"KVHTTPD_LOG_MAX_SIZE", "logging.maxSize"},
	{"KVHTTPD_LOG_MAX_BACKUPS", "logging.maxBackups"},
	{"KVHTTPD_LOG_COMPRESS", "logging.compress"},
}

// GetSupportedEnvVars lists the environment variables LoadConfigWithDetails honours,
// KVHTTPD_CONFIG included.
func GetSupportedEnvVars() []string {
	vars := []string{paths.ConfigEnvVar}
	for _, b := range envBindings {
		vars = append(vars, b.env)
	}
	return vars
}

// LoadConfigWithDetails layers defaults, the config file and environment
// overrides. KVHTTPD_CONFIG replaces the default file location; a file named
// there must exist.
func LoadConfigWithDetails(root string) (*LoadResult, error) {
	v := viper.New()
	v.SetConfigType("toml")

	explicit := os.Getenv(paths.ConfigEnvVar)
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(paths.GetDataDir(root))
	}

	for _, b := range envBindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, errors.New(errors.InvalidConfig, "failed to bind "+b.env, err)
		}
	}

	result := &LoadResult{}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || explicit != "" {
			return nil, errors.New(errors.InvalidConfig, "failed to read config", err)
		}
		result.UsedDefaults = true
	} else {
		result.ConfigPath = v.ConfigFileUsed()
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New(errors.InvalidConfig, "failed to decode config", err)
	}

	for _, b := range envBindings {
		if value, ok := os.LookupEnv(b.env); ok {
			result.EnvOverrides = append(result.EnvOverrides, EnvOverride{EnvVar: b.env, Key: b.key, Value: value})
		}
	}

	cfg.Server.Method = strings.ToLower(cfg.Server.Method)
	result.Config = cfg
	return result, nil
}

// ApplyArgs applies --host, --port and --method from the command line. CLI
// values take precedence over file and environment.
func (c *Config) ApplyArgs(args *arghelper.Args) error {
	if host, ok := args.Value("host"); ok {
		c.Server.Host = host
	}
	if port, ok := args.Value("port"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(port))
		if err != nil {
			return errors.New(errors.InvalidConfig, fmt.Sprintf("invalid --port %q", port),
				&ConfigError{Field: "server.port", Message: "not a number"})
		}
		c.Server.Port = n
	}
	if method, ok := args.Value("method"); ok {
		c.Server.Method = strings.ToLower(method)
	}
	return nil
}

// Encode returns the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Save writes the configuration to <root>/.kvhttpd/config.toml
func (c *Config) Save(root string) error {
	if _, err := paths.EnsureDataDir(root); err != nil {
		return err
	}

	data, err := c.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(paths.GetConfigPath(root), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !strings.EqualFold(c.Server.Method, "asynchttp") {
		return errors.New(errors.UnknownServerMethod, "specified method not found",
			&ConfigError{Field: "server.method", Message: fmt.Sprintf("unknown server method %q", c.Server.Method)})
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server.port", "must be between 0 and 65535")
	}
	if c.Server.MaxRequestBytes <= 0 {
		return invalid("server.maxRequestBytes", "must be positive")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return invalid("logging.format", fmt.Sprintf("unknown format %q", c.Logging.Format))
	}
	if c.Logging.MaxBackups < 0 {
		return invalid("logging.maxBackups", "must not be negative")
	}

	return nil
}

func invalid(field, message string) error {
	return errors.New(errors.InvalidConfig, "invalid configuration",
		&ConfigError{Field: field, Message: message})
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
